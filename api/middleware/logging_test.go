package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aislice/aislice-backend/pkg/logger"
)

func newLoggingHandler(buf *bytes.Buffer, inner http.HandlerFunc) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})
	return Logging(logg)(inner)
}

func TestLoggingRecordsStatusCode(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLoggingHandler(buf, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected wrapped handler status 404, got %d", rec.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status":404`)) {
		t.Fatalf("expected completion entry with status 404; got %s", buf.String())
	}
}

func TestLoggingDefaultsImplicitStatusToOK(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLoggingHandler(buf, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dishes", nil))

	if !bytes.Contains(buf.Bytes(), []byte(`"status":200`)) {
		t.Fatalf("expected completion entry with status 200; got %s", buf.String())
	}
}
