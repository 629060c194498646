// Package middleware содержит HTTP middleware сервиса vales-contigo.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/vales-contigo/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	sessionCookieName = "vales_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// SessionMiddleware хранит сессию (PIN и выбранный вале) в подписанном cookie.
type SessionMiddleware struct {
	secretKey []byte
}

// NewSessionMiddleware создаёт новый экземпляр SessionMiddleware с указанным секретным ключом.
// При пустом ключе генерируется случайный: сессии не переживут перезапуск.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &SessionMiddleware{
		secretKey: key,
	}
}

// Middleware читает cookie сессии и, если подпись верна, кладёт сессию в контекст запроса.
// Запрос без сессии пропускается дальше: решение принимает обработчик.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, ok := m.parseCookie(cookie.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookie записывает сессию в подписанный cookie.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter, sess model.Session) error {
	value, err := m.sign(sess)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// ClearSessionCookie удаляет cookie сессии.
func (m *SessionMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionMiddleware) sign(sess model.Session) (string, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + m.signature(encoded), nil
}

func (m *SessionMiddleware) signature(encoded string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *SessionMiddleware) parseCookie(cookieValue string) (model.Session, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return model.Session{}, false
	}

	encoded, signature := parts[0], parts[1]
	if !hmac.Equal([]byte(signature), []byte(m.signature(encoded))) {
		return model.Session{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return model.Session{}, false
	}

	var sess model.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return model.Session{}, false
	}

	if sess.PIN == "" {
		return model.Session{}, false
	}

	return sess, true
}

// GetSessionFromContext извлекает сессию из контекста запроса.
func GetSessionFromContext(ctx context.Context) (model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(model.Session)
	return sess, ok
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, sess model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
