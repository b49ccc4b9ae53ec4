// Package httpapi exposes the ledger over the REST interface the browser
// client talks to.
package httpapi

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/cache"
	"github.com/cleared-dev/tally/internal/ledger"
)

// Options configures the HTTP surface.
type Options struct {
	// AllowOrigins lists CORS origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// APIUser and APIPasswordHash (bcrypt) enable basic auth on /api.
	APIUser         string
	APIPasswordHash string
}

// Server holds the services behind the handlers.
type Server struct {
	accounts *accounts.Service
	ledger   *ledger.Service
	cache    cache.Summaries
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Server. A nil cache disables summary caching.
func New(acc *accounts.Service, led *ledger.Service, c cache.Summaries, log *slog.Logger) *Server {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{accounts: acc, ledger: led, cache: c, log: log, now: time.Now}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler(opts Options) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), corsMiddleware(opts.AllowOrigins))

	r.GET("/health", s.health)

	api := r.Group("/api")
	if opts.APIPasswordHash != "" {
		api.Use(basicAuth(opts.APIUser, opts.APIPasswordHash, s.log))
	}

	tx := api.Group("/transactions")
	tx.POST("", s.createTransaction)
	tx.GET("", s.listTransactions)
	tx.GET("/date-range", s.transactionsInRange)
	tx.GET("/dashboard", s.dashboard)
	tx.GET("/dashboard/divisions", s.dashboardByDivision)
	tx.GET("/categories", s.categories)
	tx.GET("/categories/used", s.usedCategories)
	tx.GET("/type/:type", s.transactionsByType)
	tx.GET("/division/:division", s.transactionsByDivision)
	tx.GET("/category/:category", s.transactionsByCategory)
	tx.GET("/:id", s.getTransaction)
	tx.PUT("/:id", s.updateTransaction)
	tx.DELETE("/:id", s.deleteTransaction)

	acct := api.Group("/accounts")
	acct.POST("", s.createAccount)
	acct.GET("", s.listAccounts)
	acct.GET("/total", s.totalBalance)
	acct.GET("/:name", s.getAccount)
	acct.DELETE("/:id", s.deleteAccount)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "tally"})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
