// Package handler содержит HTTP-обработчики страницы вале.
package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/vales-contigo/internal/middleware"
	"github.com/mmeshcher/vales-contigo/internal/model"
	"github.com/mmeshcher/vales-contigo/internal/service"
	"github.com/mmeshcher/vales-contigo/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	msgEmptyPIN = "El PIN no puede estar vacío."
	msgWrongPIN = "PIN incorrecto."
	msgUsed     = "Vale usado 🧀✨"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Variant() model.Variant
	Enter(pin string) (model.Session, error)
	Board(ctx context.Context, sess model.Session) model.Board
	RequestUse(ctx context.Context, sess model.Session, id int) (model.Session, error)
	Confirm(ctx context.Context, sess model.Session) (model.Session, error)
	Cancel(sess model.Session) model.Session
	Reactivate(ctx context.Context, sess model.Session, ids []int) error
	Export(ctx context.Context, sess model.Session) ([]byte, error)
	ExportName(sess model.Session) string
}

// Handler реализует HTTP-обработчики страницы вале.
type Handler struct {
	service   Service
	logger    *zap.Logger
	sessions  *middleware.SessionMiddleware
	templates *template.Template
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, sessions *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:   s,
		logger:    logger,
		sessions:  sessions,
		templates: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

type pinPage struct {
	Warning string
	Error   string
}

type boardPage struct {
	Board         model.Board
	CanReactivate bool
	Flash         string
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("render template error", zap.Error(err), zap.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// session возвращает сессию запроса; без неё отправляет на экран PIN.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		redirect(w, r, "/pin")
		return model.Session{}, false
	}
	return sess, true
}

func (h *Handler) saveSession(w http.ResponseWriter, sess model.Session) bool {
	if err := h.sessions.SetSessionCookie(w, sess); err != nil {
		h.logger.Error("set session cookie error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// PINForm показывает экран ввода PIN.
func (h *Handler) PINForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		redirect(w, r, "/")
		return
	}

	h.render(w, http.StatusOK, "pin", pinPage{})
}

// EnterPIN проверяет PIN и открывает сессию.
func (h *Handler) EnterPIN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sess, err := h.service.Enter(r.PostFormValue("pin"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPIN):
			h.render(w, http.StatusOK, "pin", pinPage{Warning: msgEmptyPIN})
		case errors.Is(err, service.ErrWrongPIN):
			h.logger.Warn("wrong pin attempt")
			h.render(w, http.StatusUnauthorized, "pin", pinPage{Error: msgWrongPIN})
		default:
			h.logger.Error("enter pin error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if !h.saveSession(w, sess) {
		return
	}

	redirect(w, r, "/")
}

// Logout закрывает сессию.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	redirect(w, r, "/pin")
}

// Board показывает карточки вале для текущего PIN.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	page := boardPage{
		Board:         h.service.Board(r.Context(), sess),
		CanReactivate: h.service.Variant().CanReactivate(),
	}
	if r.URL.Query().Get("used") != "" {
		page.Flash = msgUsed
	}

	h.render(w, http.StatusOK, "board", page)
}

// RequestUse выбирает вале для подтверждения.
func (h *Handler) RequestUse(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	id, valid := validation.ParseCouponID(chi.URLParam(r, "id"))
	if !valid {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	next, err := h.service.RequestUse(r.Context(), sess, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponAlreadyUsed):
			redirect(w, r, "/")
		case errors.Is(err, service.ErrUnknownCoupon):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		default:
			h.logger.Error("request use error", zap.Error(err), zap.Int("coupon", id))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if !h.saveSession(w, next) {
		return
	}

	redirect(w, r, "/#confirm")
}

// Confirm отмечает выбранный вале использованным.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	next, err := h.service.Confirm(r.Context(), sess)
	if err != nil {
		if errors.Is(err, service.ErrNothingPending) {
			redirect(w, r, "/")
			return
		}
		h.logger.Error("confirm coupon error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.saveSession(w, next) {
		return
	}

	redirect(w, r, "/?used="+strconv.Itoa(*sess.Pending))
}

// Cancel сбрасывает выбранный вале.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if !h.saveSession(w, h.service.Cancel(sess)) {
		return
	}

	redirect(w, r, "/")
}

// Reactivate возвращает отмеченные вале в доступные.
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ids := make([]int, 0, len(r.PostForm["ids"]))
	for _, raw := range r.PostForm["ids"] {
		if id, valid := validation.ParseCouponID(raw); valid {
			ids = append(ids, id)
		}
	}

	if err := h.service.Reactivate(r.Context(), sess, ids); err != nil {
		if errors.Is(err, service.ErrReactivateDisabled) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("reactivate error", zap.Error(err), zap.Ints("coupons", ids))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	redirect(w, r, "/#manage")
}

// Export отдаёт текущее состояние как JSON-файл.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	data, err := h.service.Export(r.Context(), sess)
	if err != nil {
		if errors.Is(err, service.ErrExportDisabled) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("export error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": h.service.ExportName(sess),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Health сообщает, что сервис запущен.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
