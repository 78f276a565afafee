package services

import (
	"quaderno/internal/aggregate"
	"quaderno/internal/core"
)

// Sink receives everything a view of the ledger needs to draw itself.
type Sink interface {
	RenderEntry(r core.Record)
	RenderDailyTotal(total core.Money)
	RenderAllTimeTotal(total core.Money)
	RenderSeriesChart(series []aggregate.DayTotal)
	RenderCategoryChart(shares []aggregate.CategoryShare)
	RenderCategoryTable(shares []aggregate.CategoryShare)
}

// Flusher is implemented by sinks that buffer a redraw and publish it at once.
type Flusher interface {
	Flush() error
}

// RenderSummary sends a computed summary to sink in display order.
func RenderSummary(sink Sink, s aggregate.Summary) {
	sink.RenderDailyTotal(s.DailyTotal)
	sink.RenderAllTimeTotal(s.AllTime)
	sink.RenderSeriesChart(s.Series)
	sink.RenderCategoryChart(s.Categories)
	sink.RenderCategoryTable(s.Categories)
}
