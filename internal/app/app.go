package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/internly/internly/internal/config"
	"github.com/internly/internly/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	deps := BuildDependencies(db, cfg)
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, router: r, srv: srv}, nil
}

// Run starts the HTTP server and blocks.
func (a *Application) Run() error {
	defer a.db.Close()
	log.Infof("Starting server on %s (%s)", a.srv.Addr, a.cfg.Host)
	if a.cfg.Sync.StaleLockAfter > 0 {
		log.Infof("Wallet sync locks older than %s can be taken over", a.cfg.Sync.StaleLockAfter)
	}
	return a.srv.ListenAndServe()
}
