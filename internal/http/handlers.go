package http

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"powerbill/internal/auth"
	"powerbill/internal/core"
	"powerbill/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	unpaidOnly := false
	if v := r.URL.Query().Get("unpaid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid query", "unpaid must be true or false")
			return
		}
		unpaidOnly = b
	}

	bills, err := s.billing.ListBills(r.Context(), unpaidOnly)
	if err != nil {
		writeEngineError(w, r, log.OpList, "failed to list bills", err)
		return
	}
	writeOK(w, http.StatusOK, "bills", newBillViews(bills, s.billing.Today()))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := billIDParam(w, r)
	if !ok {
		return
	}
	b, err := s.billing.FindBill(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, log.OpList, "failed to load bill", err)
		return
	}
	writeOK(w, http.StatusOK, "bill", newBillView(b, s.billing.Today()))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.billing.ListTransactions(r.Context())
	if err != nil {
		writeEngineError(w, r, log.OpList, "failed to list transactions", err)
		return
	}
	writeOK(w, http.StatusOK, "transactions", newTransactionViews(txs))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.billing.Summary(r.Context())
	if err != nil {
		writeEngineError(w, r, log.OpList, "failed to summarize bills", err)
		return
	}
	writeOK(w, http.StatusOK, "summary", newSummaryView(sum))
}

func (s *Server) handleRecordDeposit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, err := parseAmount(p, "amount")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", "amount must be a positive decimal")
		return
	}
	category, err := parseCategory(p.Get("category"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}

	b, err := s.billing.RecordDeposit(r.Context(), amount, category)
	if err != nil {
		writeEngineError(w, r, log.OpDeposit, "failed to record deposit", err)
		return
	}
	writeOK(w, http.StatusCreated, "deposit recorded", newBillView(b, s.billing.Today()))
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var problems []string
	amount, err := parseAmount(p, "amount")
	if err != nil {
		problems = append(problems, "amount must be a non-negative decimal")
	}
	status, err := parseStatus(p.Get("status"))
	if err != nil {
		problems = append(problems, err.Error())
	}
	category, err := parseCategory(p.Get("category"))
	if err != nil {
		problems = append(problems, err.Error())
	}
	vendor := p.Get("vendor")
	if vendor == "" {
		problems = append(problems, core.ErrEmptyVendor.Error())
	}
	if len(problems) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", problems...)
		return
	}

	b, err := s.billing.CreateBill(r.Context(), vendor, amount, status, category)
	if err != nil {
		writeEngineError(w, r, log.OpCreate, "failed to create bill", err)
		return
	}
	writeOK(w, http.StatusCreated, "bill created", newBillView(b, s.billing.Today()))
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := billIDParam(w, r)
	if !ok {
		return
	}

	payment, err := s.billing.MarkPaid(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, log.OpPay, "failed to mark bill as paid", err)
		return
	}

	msg := "bill paid"
	switch {
	case payment.AlreadyPaid:
		msg = "bill already paid"
	case payment.FineApplied:
		msg = "bill paid with late fine " + core.FormatRupees(payment.Fine)
	}
	writeOK(w, http.StatusOK, msg, newPaymentView(payment, s.billing.Today()))
}

func (s *Server) handleDomesticTariff(w http.ResponseWriter, r *http.Request) {
	units, err := strconv.Atoi(r.URL.Query().Get("units"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", "units must be a whole number")
		return
	}
	rate, err := s.tariff.DomesticRate(units)
	if err != nil {
		writeEngineError(w, r, log.OpValidate, "invalid units", err)
		return
	}
	charge, err := s.tariff.DomesticCharge(units)
	if err != nil {
		writeEngineError(w, r, log.OpValidate, "invalid units", err)
		return
	}
	writeOK(w, http.StatusOK, "domestic tariff", DomesticQuoteView{
		Units:  units,
		Rate:   core.FormatAmount(rate),
		Charge: core.FormatAmount(charge),
	})
}

func (s *Server) handleCommercialTariff(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	units, err := p.GetInts("units")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}
	roster, err := s.tariff.CommercialCharge(units)
	if err != nil {
		writeEngineError(w, r, log.OpValidate, "invalid units", err)
		return
	}
	writeOK(w, http.StatusOK, "commercial tariff", newRosterView(roster))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found", r.URL.Path)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method+" "+r.URL.Path)
}

func billIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid bill id", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}

// requireAdmin checks basic-auth credentials against the admin password.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(auth.AdminUser)) != 1 {
			s.unauthorized(w, r)
			return
		}
		if err := s.auth.VerifyAdmin(password); err != nil {
			s.unauthorized(w, r)
			return
		}
		logger := log.FromContext(r.Context()).With(log.FieldRole, string(auth.RoleAdmin))
		logger.InfoContext(r.Context(), "Admin request authorised", log.FieldPath, r.URL.Path)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Admin authentication failed",
		log.FieldPath, r.URL.Path,
		log.FieldClientIP, clientIP(r))
	w.Header().Set("WWW-Authenticate", `Basic realm="powerbill admin"`)
	writeError(w, http.StatusUnauthorized, "unauthorized", "admin credentials required")
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "try again later")
}

// clientIP strips the port chi's RealIP leaves on RemoteAddr for direct peers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
