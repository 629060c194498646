package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmeshcher/vales-contigo/internal/model"
)

func TestSessionMiddleware_WithValidCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	pending := 4
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		sess, ok := GetSessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session not in context")
		}
		if sess.PIN != "a b/🧀" {
			t.Fatalf("pin from context = %q, want %q", sess.PIN, "a b/🧀")
		}
		if sess.Pending == nil || *sess.Pending != pending {
			t.Fatalf("pending from context = %v, want %d", sess.Pending, pending)
		}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := m.SetSessionCookie(w, model.Session{PIN: "a b/🧀", Pending: &pending}); err != nil {
		t.Fatalf("SetSessionCookie: %v", err)
	}
	resCookies := w.Result().Cookies()
	if len(resCookies) == 0 {
		t.Fatalf("no cookies set by SetSessionCookie")
	}

	r.AddCookie(resCookies[0])

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestSessionMiddleware_WithoutCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		if _, ok := GetSessionFromContext(r.Context()); ok {
			t.Fatalf("unexpected session in context")
		}
	})

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestSessionMiddleware_RejectsForeignSignature(t *testing.T) {
	issuer := NewSessionMiddleware("other-secret")
	m := NewSessionMiddleware("test-secret")

	w := httptest.NewRecorder()
	if err := issuer.SetSessionCookie(w, model.Session{PIN: "quesito"}); err != nil {
		t.Fatalf("SetSessionCookie: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(w.Result().Cookies()[0])

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); ok {
			t.Fatalf("session signed with another key must be ignored")
		}
	})

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)
}

func TestSessionMiddleware_RejectsGarbage(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	for _, value := range []string{"", "abc", "a.b.c", "!!!." + m.signature("!!!")} {
		if _, ok := m.parseCookie(value); ok {
			t.Fatalf("parseCookie(%q) accepted", value)
		}
	}
}

func TestClearSessionCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	w := httptest.NewRecorder()
	m.ClearSessionCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Fatalf("MaxAge = %d, want negative", cookies[0].MaxAge)
	}
}
