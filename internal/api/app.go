package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/auth"
	"github.com/yourname/medtracker/internal/config"
	"github.com/yourname/medtracker/internal/ledger"
)

type App interface {
	Logger() internal.Logger
	Ledgers() *ledger.Registry
}

// Server wires the HTTP surface: middleware, routes, and the per-user
// ledger registry behind them.
type Server struct {
	logger   internal.Logger
	registry *ledger.Registry
	provider auth.Provider
	cfg      *config.Config
}

func NewServer(logger internal.Logger, registry *ledger.Registry, provider auth.Provider, cfg *config.Config) *Server {
	return &Server{logger: logger, registry: registry, provider: provider, cfg: cfg}
}

func (s *Server) Logger() internal.Logger   { return s.logger }
func (s *Server) Ledgers() *ledger.Registry { return s.registry }

func (s *Server) Router() *gin.Engine {
	if s.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(auth.Middleware(s.provider, s.cfg))

	r.GET("/medications", ListMedications(s))
	r.POST("/medications", PostMedication(s))
	r.PATCH("/medications/:id", PatchMedication(s))
	r.DELETE("/medications/:id", DeleteMedication(s))
	r.POST("/medications/:id/taken", PostTaken(s))
	r.GET("/intake-logs", ListIntakeLogs(s))
	r.GET("/adherence/stats", GetAdherenceStats(s))

	return r
}

var _ App = (*Server)(nil)
