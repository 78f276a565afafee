package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quaderno/internal/aggregate"
	"quaderno/internal/backend"
	"quaderno/internal/cache"
	"quaderno/internal/log"
	"quaderno/internal/metrics"
	"quaderno/internal/middleware/security"
	"quaderno/internal/middleware/trace"
	"quaderno/internal/services"
)

// Options tunes optional server behaviour.
type Options struct {
	Logger          *log.Logger
	Health          backend.HealthFunc
	SummaryCacheMax int
	SummaryCacheTTL time.Duration
	TrustedProxies  []string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Server struct {
	http.Server
	svc    *services.ExpenseService
	health backend.HealthFunc
	logger *log.Logger
	now    func() time.Time

	summaryCache *cache.LRUCache[aggregate.Summary]
	cacheManager *cache.Manager
	tracer       *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.ExpenseService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.SummaryCacheMax <= 0 {
		opts.SummaryCacheMax = 64
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = 5 * time.Minute
	}

	clientIP, err := security.NewClientIP(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	metrics.Init()

	s := &Server{
		svc:          svc,
		health:       opts.Health,
		logger:       logger.WithComponent(log.ComponentHTTP),
		now:          opts.Clock,
		summaryCache: cache.NewLRUCache[aggregate.Summary](opts.SummaryCacheMax, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(logger),
		tracer:       trace.NewMiddleware(logger, clientIP.Extract),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(opts.SummaryCacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /sync", s.handleSync)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// summary returns the summary for ref, reusing a cached copy computed from
// the same ledger revision.
func (s *Server) summary(ref time.Time) aggregate.Summary {
	ledger := s.svc.Ledger()
	loc := ledger.Locale().Loc()
	records, rev := ledger.Snapshot()
	key := fmt.Sprintf("%d|%s", rev, dateKey(ref, loc))

	if cached, ok := s.summaryCache.Get(key); ok {
		metrics.IncSummaryCache(true)
		return cached
	}
	metrics.IncSummaryCache(false)
	sum := aggregate.Compute(records, ref, loc)
	s.summaryCache.Set(key, sum)
	return sum
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
