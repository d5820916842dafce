package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/middleware"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/appointment"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/auth"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/backup"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/checks"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/consultation"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/dashboard"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/finance"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/patient"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/record"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/scheduling"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/settings"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	pasetotoken "github.com/rodrigoprogmaster-prog/clinica/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client
	Store           *state.Store
	AuthSvc         auth.Service
	Checks          checks.Coordinator
	PatientSvc      patient.Service
	RecordSvc       record.Service
	SchedulingSvc   scheduling.Service
	AppointmentSvc  appointment.Service
	ReminderSvc     reminder.Service
	ConsultationSvc consultation.Service
	FinanceSvc      finance.Service
	SettingsSvc     settings.Service
	DashboardSvc    dashboard.Service
	AuditSvc        audit.Service
	BackupSvc       backup.Service
	PasetoMgr       *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.AuthSvc)
	loginLimiter := middleware.LoginLimiter(r.p.Cfg.Authentication.LoginRate)

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc, r.p.Checks)
	checksH := handler.NewChecksHandler(r.p.Checks, r.p.ReminderSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc, r.p.RecordSvc)
	notificationH := handler.NewNotificationHandler(r.p.ReminderSvc)
	scheduleH := handler.NewScheduleHandler(r.p.SchedulingSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc, r.p.ReminderSvc)
	consultationH := handler.NewConsultationHandler(r.p.ConsultationSvc)
	financeH := handler.NewFinanceHandler(r.p.FinanceSvc)
	settingsH := handler.NewSettingsHandler(r.p.SettingsSvc)
	reportH := handler.NewReportHandler(r.p.DashboardSvc, r.p.AuditSvc, r.p.Store)
	backupH := handler.NewBackupHandler(r.p.BackupSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired, loginLimiter)
	r.registerCheckRoutes(api, checksH, authRequired)
	r.registerPatientRoutes(api, patientH, notificationH, authRequired)
	r.registerNotificationRoutes(api, notificationH, authRequired)
	r.registerScheduleRoutes(api, scheduleH, authRequired)
	r.registerAppointmentRoutes(api, appointmentH, authRequired)
	r.registerFinanceRoutes(api, consultationH, financeH, authRequired)
	r.registerAdminRoutes(api, settingsH, reportH, backupH, authRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.p.Redis.Ping(c.Context()).Err() == nil },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
