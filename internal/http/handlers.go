package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quaderno/internal/core"
	"quaderno/internal/export"
	"quaderno/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createResponse struct {
	Expense   expenseJSON `json:"expense"`
	Persisted bool        `json:"persisted"`
	Pending   bool        `json:"pending"`
}

type summaryResponse struct {
	summaryJSON
	Pending bool `json:"pending"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ledger := s.svc.Ledger()
	status := map[string]any{
		"records": ledger.Len(),
		"pending": ledger.Pending(),
	}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			status["status"] = "unavailable"
			status["error"] = err.Error()
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
	}
	status["status"] = "ready"
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.svc.Submit(r.Context(), p.Get("amount"), p.Get("note"))
	pending := s.svc.Ledger().Pending()
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Expense kept in memory only",
			log.FieldOperation, log.OpSave, log.FieldError, err)
		writeJSON(w, r, http.StatusInternalServerError, createResponse{
			Expense: toExpenseJSON(rec), Persisted: false, Pending: pending,
		})
	default:
		log.FromContext(r.Context()).InfoContext(r.Context(), "Expense recorded",
			log.FieldAmount, rec.Amount.Cents, log.FieldCategory, rec.Category())
		writeJSON(w, r, http.StatusCreated, createResponse{
			Expense: toExpenseJSON(rec), Persisted: true, Pending: pending,
		})
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"expenses": toExpensesJSON(s.svc.Ledger().Records()),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ref, err := ParseDateQuery(r.URL.Query(), s.svc.Ledger().Locale().Loc(), s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, summaryResponse{
		summaryJSON: toSummaryJSON(s.summary(ref)),
		Pending:     s.svc.Ledger().Pending(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ref, err := ParseDateQuery(r.URL.Query(), s.svc.Ledger().Locale().Loc(), s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	records := s.svc.Ledger().Records()
	data, err := export.BuildWorkbook(records, s.summary(ref))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="quaderno.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !p.Bool("confirm") {
		writeError(w, r, http.StatusBadRequest, "reset requires confirm=true")
		return
	}
	if err := s.svc.Reset(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Reset failed",
			log.FieldOperation, log.OpReset, log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "reset failed")
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, r, http.StatusOK, map[string]any{"reset": true})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Resync(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Resync failed",
			log.FieldOperation, log.OpResync, log.FieldError, err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]any{
			"error":   "resync failed",
			"pending": true,
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"pending": s.svc.Ledger().Pending(),
		"records": s.svc.Ledger().Len(),
	})
}
