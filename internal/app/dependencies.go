package app

import (
	"github.com/internly/internly/internal/config"
	"github.com/internly/internly/internal/event_bus"
	"github.com/internly/internly/internal/metrics"
	"github.com/internly/internly/internal/utils"
	"github.com/internly/internly/pkg/allowance"
	"github.com/internly/internly/pkg/attendance"
	"github.com/internly/internly/pkg/settings"
	"github.com/internly/internly/pkg/user"
	"github.com/internly/internly/pkg/wallet"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	UserService user.Service

	SettingsService *settings.ServiceImpl
	SettingsHandler *settings.Handler

	AttendanceRepo    attendance.Repository
	AttendanceService *attendance.Aggregator
	AttendanceHandler *attendance.Handler

	ClaimStore       allowance.Repository
	AllowanceService *allowance.ServiceImpl
	AllowanceHandler *allowance.Handler

	WalletService *wallet.ServiceImpl
	WalletHandler *wallet.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.New(deps.Registry)
	deps.Metrics.Subscribe(deps.EventBus)

	deps.UserService = user.NewUserService(user.NewUserRepo(db))

	deps.SettingsService = settings.NewService(settings.NewRepo(db), deps.EventBus)
	deps.SettingsHandler = settings.NewHandler(deps.SettingsService)

	deps.AttendanceRepo = attendance.NewRepo(db)
	deps.AttendanceService = attendance.NewAggregator(deps.AttendanceRepo, deps.Clock)
	deps.AttendanceHandler = attendance.NewHandler(deps.AttendanceService, deps.AttendanceRepo, deps.Clock)

	deps.ClaimStore = allowance.NewRepo(db)
	deps.AllowanceService = allowance.NewService(deps.ClaimStore, deps.SettingsService, deps.AttendanceService, deps.EventBus, deps.Clock)
	deps.AllowanceHandler = allowance.NewHandler(deps.AllowanceService)

	deps.WalletService = wallet.NewService(deps.ClaimStore, deps.Clock, deps.Metrics, cfg.Sync.StaleLockAfter)
	deps.WalletHandler = wallet.NewHandler(deps.WalletService)

	return deps
}
