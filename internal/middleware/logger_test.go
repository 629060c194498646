package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
		_, _ = w.Write([]byte("moved"))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/confirm", nil)

	Logger(logger)(next).ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/confirm", fields["path"])
	assert.Equal(t, int64(http.StatusSeeOther), fields["status"])
	assert.Equal(t, int64(5), fields["size"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, fields["request_id"], rec.Header().Get("X-Request-ID"))
}

func TestLogger_DefaultStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	Logger(zap.New(core))(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
}
