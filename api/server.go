// Package api exposes dailymood contracts over HTTP.
//
// Reads are public. Mutating routes require the caller to sign
// SigningPayload, which covers the body hash, with an Ethereum key (EIP-191
// personal message) and send the address, timestamp and signature in the
// X-Dailymood-* headers; the recovered address is the caller passed to the
// contract.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/dailymood"
)

// Server serves the contract routes of one Ledger.
type Server struct {
	ledger   *dailymood.Ledger
	logger   *slog.Logger
	verifier verifier
	basePath string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSkew sets the accepted signature timestamp window.
func WithSkew(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.verifier.skew = d
		}
	}
}

// WithClock replaces the clock used to check signature timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.verifier.clock = clock
		}
	}
}

// WithBasePath mounts the routes under path in Handler.
func WithBasePath(path string) Option {
	return func(s *Server) { s.basePath = path }
}

// New creates a Server over l.
func New(l *dailymood.Ledger, opts ...Option) *Server {
	s := &Server{
		ledger:   l,
		logger:   slog.Default(),
		verifier: verifier{skew: DefaultSkew, clock: time.Now},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns a gin engine serving the routes under the base path.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.Register(r.Group(s.basePath))
	return r
}

// Register mounts the contract routes on r.
func (s *Server) Register(r gin.IRouter) {
	signed := s.requireSignature()

	r.POST("/contracts", signed, s.deploy)

	c := r.Group("/contracts/:contract", s.attach())
	c.GET("", s.describe)

	c.GET("/owner", s.owner)
	c.PUT("/owner", signed, s.transferOwnership)

	c.GET("/allowed", s.allowed)
	c.GET("/allowed/:address", s.isAllowed)
	c.POST("/allowed", signed, s.addAllowed)
	c.DELETE("/allowed/:address", signed, s.removeAllowed)

	c.POST("/moods", signed, s.pushMood)
	c.GET("/moods/:account", s.moodsLength)
	c.DELETE("/moods/:account", signed, s.removeMoods)
	c.GET("/moods/:account/:index", s.moodByIndex)
	c.PUT("/moods/:account/:index", signed, s.updateMood)
	c.DELETE("/moods/:account/:index", signed, s.removeMood)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
