// Package service реализует бизнес-логику вале: вход по PIN, выбор, подтверждение и реактивацию.
package service

import (
	"context"
	"errors"

	"github.com/mmeshcher/vales-contigo/internal/catalog"
	"github.com/mmeshcher/vales-contigo/internal/model"
	"github.com/mmeshcher/vales-contigo/internal/repository"
	"github.com/mmeshcher/vales-contigo/internal/validation"
)

var (
	// ErrEmptyPIN возвращается, если PIN пустой или состоит из пробелов.
	ErrEmptyPIN = errors.New("pin must not be empty")
	// ErrWrongPIN возвращается, если PIN не совпадает с заданным.
	ErrWrongPIN = errors.New("wrong pin")
	// ErrUnknownCoupon возвращается для идентификатора вне каталога.
	ErrUnknownCoupon = errors.New("unknown coupon")
	// ErrCouponAlreadyUsed возвращается при попытке выбрать уже использованный вале.
	ErrCouponAlreadyUsed = errors.New("coupon already used")
	// ErrNothingPending возвращается при подтверждении без выбранного вале.
	ErrNothingPending = errors.New("no coupon pending confirmation")
	// ErrReactivateDisabled возвращается, если вариант страницы не поддерживает реактивацию.
	ErrReactivateDisabled = errors.New("reactivation is not available")
	// ErrExportDisabled возвращается, если вариант страницы не поддерживает экспорт.
	ErrExportDisabled = errors.New("export is not available")
)

// Repository описывает контракт хранилища состояния, используемый сервисом.
type Repository interface {
	Close() error
	Load(ctx context.Context, pin string) (model.UsedSet, error)
	Save(ctx context.Context, pin string, used model.UsedSet) error
}

// Options задаёт вариант страницы и, для VariantLocked, ожидаемый PIN.
type Options struct {
	Variant     model.Variant
	ExpectedPIN string
}

// Service содержит логику переходов вале для одного PIN.
type Service struct {
	repo        Repository
	variant     model.Variant
	expectedPIN string
}

// NewService создаёт новый сервис. Пустой вариант означает VariantManage.
func NewService(repo Repository, opts Options) *Service {
	variant := opts.Variant
	if variant == "" {
		variant = model.VariantManage
	}

	return &Service{
		repo:        repo,
		variant:     variant,
		expectedPIN: opts.ExpectedPIN,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Variant возвращает вариант страницы.
func (s *Service) Variant() model.Variant {
	return s.variant
}

// Enter открывает сессию для введённого PIN. PIN сохраняется как есть, без обрезки пробелов.
func (s *Service) Enter(pin string) (model.Session, error) {
	if !validation.IsValidPIN(pin) {
		return model.Session{}, ErrEmptyPIN
	}

	if s.variant.RequiresFixedPIN() && pin != s.expectedPIN {
		return model.Session{}, ErrWrongPIN
	}

	return model.Session{PIN: pin}, nil
}

// LoadUsed загружает множество использованных вале. Отсутствие состояния не считается ошибкой;
// остальные ошибки хранилища возвращаются вызывающему.
func (s *Service) LoadUsed(ctx context.Context, pin string) (model.UsedSet, error) {
	used, err := s.repo.Load(ctx, pin)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return model.NewUsedSet(), nil
		}
		return model.NewUsedSet(), err
	}

	for id := range used {
		if !catalog.Contains(id) {
			used.Remove(id)
		}
	}

	return used, nil
}

// usedOrEmpty повреждённое или нечитаемое состояние считает пустым.
func (s *Service) usedOrEmpty(ctx context.Context, pin string) model.UsedSet {
	used, _ := s.LoadUsed(ctx, pin)
	return used
}

// Board возвращает состояние всех вале для сессии.
func (s *Service) Board(ctx context.Context, sess model.Session) model.Board {
	used := s.usedOrEmpty(ctx, sess.PIN)

	board := model.Board{
		PIN:     sess.PIN,
		Variant: s.variant,
		Coupons: make([]model.CouponView, 0, catalog.Size()),
		Used:    make([]model.Coupon, 0, used.Len()),
	}

	if sess.Pending != nil && !used.Has(*sess.Pending) {
		if c, ok := catalog.Get(*sess.Pending); ok {
			board.Pending = &c
		}
	}

	for _, c := range catalog.All() {
		status := model.CouponStatusAvailable
		switch {
		case used.Has(c.ID):
			status = model.CouponStatusUsed
			board.Used = append(board.Used, c)
		case board.Pending != nil && board.Pending.ID == c.ID:
			status = model.CouponStatusPendingConfirmation
		}

		board.Coupons = append(board.Coupons, model.CouponView{Coupon: c, Status: status})
	}

	return board
}

// RequestUse выбирает вале для подтверждения, заменяя предыдущий выбор. Хранилище не изменяется.
func (s *Service) RequestUse(ctx context.Context, sess model.Session, id int) (model.Session, error) {
	if !catalog.Contains(id) {
		return sess, ErrUnknownCoupon
	}

	if s.usedOrEmpty(ctx, sess.PIN).Has(id) {
		return sess, ErrCouponAlreadyUsed
	}

	sess.Pending = &id
	return sess, nil
}

// Confirm отмечает выбранный вале использованным и сохраняет состояние.
func (s *Service) Confirm(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.Pending == nil {
		return sess, ErrNothingPending
	}

	id := *sess.Pending
	used := s.usedOrEmpty(ctx, sess.PIN)

	if used.Has(id) {
		sess.Pending = nil
		return sess, nil
	}

	used.Add(id)
	if err := s.repo.Save(ctx, sess.PIN, used); err != nil {
		return sess, err
	}

	sess.Pending = nil
	return sess, nil
}

// Cancel сбрасывает выбранный вале без обращения к хранилищу.
func (s *Service) Cancel(sess model.Session) model.Session {
	sess.Pending = nil
	return sess
}

// Reactivate возвращает вале в доступные. Идентификаторы вне каталога игнорируются.
func (s *Service) Reactivate(ctx context.Context, sess model.Session, ids []int) error {
	if !s.variant.CanReactivate() {
		return ErrReactivateDisabled
	}

	if len(ids) == 0 {
		return nil
	}

	used := s.usedOrEmpty(ctx, sess.PIN)
	for _, id := range ids {
		if catalog.Contains(id) {
			used.Remove(id)
		}
	}

	return s.repo.Save(ctx, sess.PIN, used)
}

// Export возвращает текущее состояние в том же JSON-формате, что и файл состояния.
func (s *Service) Export(ctx context.Context, sess model.Session) ([]byte, error) {
	if !s.variant.CanReactivate() {
		return nil, ErrExportDisabled
	}

	return repository.EncodeState(s.usedOrEmpty(ctx, sess.PIN))
}

// ExportName возвращает имя файла для скачивания состояния.
func (s *Service) ExportName(sess model.Session) string {
	return repository.FileName(sess.PIN)
}
