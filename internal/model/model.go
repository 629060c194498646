// Package model содержит доменные сущности сервиса vales-contigo.
package model

import "sort"

// Coupon представляет один вале из фиксированного каталога.
type Coupon struct {
	ID    int
	Title string
	Text  string
}

// CouponStatus описывает состояние вале с точки зрения одного PIN.
type CouponStatus string

const (
	CouponStatusAvailable           CouponStatus = "AVAILABLE"
	CouponStatusPendingConfirmation CouponStatus = "PENDING_CONFIRMATION"
	CouponStatusUsed                CouponStatus = "USED"
)

// CouponView описывает карточку вале для отображения.
type CouponView struct {
	Coupon
	Status CouponStatus
}

// IsUsed сообщает, использован ли вале.
func (c CouponView) IsUsed() bool {
	return c.Status == CouponStatusUsed
}

// IsPending сообщает, ожидает ли вале подтверждения.
func (c CouponView) IsPending() bool {
	return c.Status == CouponStatusPendingConfirmation
}

// UsedSet содержит идентификаторы использованных вале одного PIN.
type UsedSet map[int]struct{}

// NewUsedSet создаёт множество из переданных идентификаторов.
func NewUsedSet(ids ...int) UsedSet {
	s := make(UsedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has сообщает, входит ли id в множество.
func (s UsedSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Add добавляет id в множество.
func (s UsedSet) Add(id int) {
	s[id] = struct{}{}
}

// Remove удаляет id из множества.
func (s UsedSet) Remove(id int) {
	delete(s, id)
}

// Len возвращает количество элементов.
func (s UsedSet) Len() int {
	return len(s)
}

// IDs возвращает идентификаторы по возрастанию.
func (s UsedSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// StateDocument описывает формат файла состояния и экспорта.
type StateDocument struct {
	ValesUsados []int `json:"vales_usados"`
}

// Session хранит контекст одной пользовательской сессии: активный PIN и ожидающий подтверждения вале.
type Session struct {
	PIN     string `json:"pin"`
	Pending *int   `json:"pending,omitempty"`
}

// HasPending сообщает, выбран ли вале для подтверждения.
func (s Session) HasPending() bool {
	return s.Pending != nil
}

// Board описывает всё, что нужно для отрисовки главной страницы.
type Board struct {
	PIN     string
	Variant Variant
	Coupons []CouponView
	Used    []Coupon
	Pending *Coupon
}

// Variant определяет вариант страницы.
type Variant string

const (
	// VariantBasic: любой непустой PIN, использованные вале не возвращаются.
	VariantBasic Variant = "basic"
	// VariantManage: любой непустой PIN, есть панель реактивации и экспорта.
	VariantManage Variant = "manage"
	// VariantLocked: вход только по заранее заданному PIN.
	VariantLocked Variant = "locked"
)

// ParseVariant разбирает название варианта.
func ParseVariant(s string) (Variant, bool) {
	switch v := Variant(s); v {
	case VariantBasic, VariantManage, VariantLocked:
		return v, true
	default:
		return "", false
	}
}

// CanReactivate сообщает, доступны ли реактивация и экспорт.
func (v Variant) CanReactivate() bool {
	return v == VariantManage
}

// RequiresFixedPIN сообщает, проверяется ли PIN на совпадение с заданным.
func (v Variant) RequiresFixedPIN() bool {
	return v == VariantLocked
}
