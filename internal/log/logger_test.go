package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_ComponentOnEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelDebug, ComponentBilling)

	logger.Info("bill created", FieldBillID, 1)
	logger.WithComponent(ComponentStorage).Debug("row written")

	out := buf.String()
	if !strings.Contains(out, "component=billing") {
		t.Errorf("missing billing component: %s", out)
	}
	if !strings.Contains(out, "component=storage") {
		t.Errorf("missing storage component: %s", out)
	}
	if strings.Count(out, "component=") != 2 {
		t.Errorf("component should appear once per record: %s", out)
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelWarn, ComponentApp)

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record should be written")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithBill(3, "Acme", "1000.00", "Domestic", "Unpaid").
		WithFine("100.00", 5).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldBillID] != int64(3) || f[FieldFine] != "100.00" || f[FieldDaysLate] != 5 {
		t.Errorf("unexpected fields: %v", f)
	}
	if f[FieldError] != "boom" {
		t.Errorf("error field = %v, want boom", f[FieldError])
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice length = %d, want %d", len(f.ToSlice()), 2*len(f))
	}
}

func TestFromContext_Default(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Component() != "unknown" {
		t.Errorf("expected fallback logger, got %+v", logger)
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentHTTP)

	h := Middleware(logger)(
		RequestIDMiddleware(func(r *http.Request) string { return "req-42" })(
			AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})),
		),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bills?unpaid=true", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "request_id=req-42", "path=/api/bills"} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %q: %s", want, out)
		}
	}
}
