package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func TestMiddleware_RequestID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/bills/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills/1", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("request id %q is not a uuid", seen)
		}
		if got := rec.Header().Get(HeaderRequestID); got != seen {
			t.Errorf("response header = %q, want %q", got, seen)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/bills/2", nil)
		req.Header.Set(HeaderRequestID, incoming)
		r.ServeHTTP(httptest.NewRecorder(), req)

		if seen != incoming {
			t.Errorf("request id = %q, want incoming %q", seen, incoming)
		}
	})

	t.Run("malformed incoming id is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bills/3", nil)
		req.Header.Set(HeaderRequestID, "<script>")
		r.ServeHTTP(httptest.NewRecorder(), req)

		if seen == "<script>" {
			t.Error("malformed request id should not be trusted")
		}
	})
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := RequestIDFromRequest(req); id != "" {
		t.Errorf("RequestIDFromRequest = %q, want empty", id)
	}
}
