package http

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"quaderno/internal/aggregate"
	"quaderno/internal/core"
	"quaderno/internal/log"
)

type expenseJSON struct {
	OccurredAt  time.Time `json:"occurred_at"`
	DisplayTime string    `json:"display_time"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note"`
	Category    string    `json:"category"`
}

type dayJSON struct {
	Date       string `json:"date"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type categoryJSON struct {
	Name        string  `json:"name"`
	Amount      string  `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Percentage  float64 `json:"percentage"`
}

type summaryJSON struct {
	Date            string         `json:"date"`
	DailyTotal      string         `json:"daily_total"`
	DailyTotalCents int64          `json:"daily_total_cents"`
	AllTime         string         `json:"all_time"`
	AllTimeCents    int64          `json:"all_time_cents"`
	Series          []dayJSON      `json:"series"`
	Categories      []categoryJSON `json:"categories"`
}

type errorJSON struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func toExpenseJSON(r core.Record) expenseJSON {
	return expenseJSON{
		OccurredAt:  r.OccurredAt,
		DisplayTime: r.DisplayTime,
		Amount:      r.Amount.Decimal(),
		AmountCents: r.Amount.Cents,
		Note:        r.Note,
		Category:    r.Category(),
	}
}

func toExpensesJSON(records []core.Record) []expenseJSON {
	out := make([]expenseJSON, len(records))
	for i, r := range records {
		out[i] = toExpenseJSON(r)
	}
	return out
}

func toSummaryJSON(s aggregate.Summary) summaryJSON {
	out := summaryJSON{
		Date:            s.Date.String(),
		DailyTotal:      s.DailyTotal.Decimal(),
		DailyTotalCents: s.DailyTotal.Cents,
		AllTime:         s.AllTime.Decimal(),
		AllTimeCents:    s.AllTime.Cents,
		Series:          make([]dayJSON, len(s.Series)),
		Categories:      make([]categoryJSON, len(s.Categories)),
	}
	for i, d := range s.Series {
		out.Series[i] = dayJSON{Date: d.Label(), Total: d.Total.Decimal(), TotalCents: d.Total.Cents}
	}
	for i, c := range s.Categories {
		out.Categories[i] = categoryJSON{
			Name:        c.Name,
			Amount:      c.Amount.Decimal(),
			AmountCents: c.Amount.Cents,
			Percentage:  roundPercent(c.Percentage),
		}
	}
	return out
}

// roundPercent rounds to two decimals for display.
func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed writing response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorJSON{Error: msg, RequestID: requestID(r)})
}
