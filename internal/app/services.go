package app

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
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
	"github.com/rodrigoprogmaster-prog/clinica/pkg/email"
	pasetotoken "github.com/rodrigoprogmaster-prog/clinica/pkg/paseto"
	redispkg "github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
)

// Redis key prefixes.
const (
	sessionPrefix    = "session"
	reschedulePrefix = "reschedule"
	checksPrefix     = "checks"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		audit.New,
		dashboard.New,
		consultation.New,
		record.New,
		finance.New,
		settings.New,
		ProvideSchedulingService,
		ProvidePatientService,
		ProvideAppointmentService,
		ProvideReminderService,
		ProvideAuthService,
		ProvideChecksCoordinator,
		ProvideBackupService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewFromConfig(cfg.Authentication.Paseto)
}

func ProvideSchedulingService(
	st *state.Store,
	auditSvc audit.Service,
	clock domain.Clock,
	cfg *config.Config,
	log *slog.Logger,
) scheduling.Service {
	return scheduling.New(st, auditSvc, clock, cfg.Clinic.Workday, log)
}

func ProvidePatientService(
	st *state.Store,
	auditSvc audit.Service,
	clock domain.Clock,
	cfg *config.Config,
	log *slog.Logger,
) patient.Service {
	return patient.New(st, auditSvc, clock, cfg.Clinic.Validation.RequirePatientFields, log)
}

func ProvideAppointmentService(
	st *state.Store,
	days scheduling.Service,
	auditSvc audit.Service,
	rdb *redis.Client,
	clock domain.Clock,
	cfg *config.Config,
	log *slog.Logger,
) appointment.Service {
	return appointment.New(st, days, auditSvc, redispkg.NewKV(rdb, reschedulePrefix), clock, appointment.Policy{
		RequireFields: cfg.Clinic.Validation.RequireAppointmentFields,
		RescheduleTTL: time.Duration(cfg.Authentication.RescheduleTTLMinutes) * time.Minute,
	}, log)
}

func ProvideReminderService(
	st *state.Store,
	mailer *email.Client,
	clock domain.Clock,
	cfg *config.Config,
	log *slog.Logger,
) reminder.Service {
	return reminder.New(st, mailer, cfg.Clinic.Name, clock, log)
}

func ProvideAuthService(
	st *state.Store,
	auditSvc audit.Service,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	clock domain.Clock,
	cfg *config.Config,
	log *slog.Logger,
) auth.Service {
	return auth.New(st, auditSvc, redispkg.NewKV(rdb, sessionPrefix), paseto, cfg.Clinic.MasterPassword, clock, log)
}

// ProvideChecksCoordinator keeps check positions as long as the session
// they belong to.
func ProvideChecksCoordinator(
	st *state.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	clock domain.Clock,
	log *slog.Logger,
) checks.Coordinator {
	return checks.New(st, nil, redispkg.NewKV(rdb, checksPrefix), paseto.RefreshTTL(), clock, log)
}

func ProvideBackupService(
	st *state.Store,
	auditSvc audit.Service,
	objects backup.ObjectStore,
	clock domain.Clock,
	log *slog.Logger,
) backup.Service {
	return backup.New(st, auditSvc, objects, clock, log)
}
