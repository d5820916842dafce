package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/s3"
)

// Version is written into every export and is the only one restored.
const Version = "1.0"

const archivePrefix = "backups/"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type DocumentSettings struct {
	ProfileImage   string `json:"profileImage"`
	SignatureImage string `json:"signatureImage"`
}

// Document is the backup file format.
type Document struct {
	Version           string                       `json:"version"`
	Timestamp         time.Time                    `json:"timestamp"`
	Patients          []domain.Patient             `json:"patients"`
	Appointments      []domain.Appointment         `json:"appointments"`
	Notes             []domain.SessionNote         `json:"notes"`
	Observations      []domain.InternalObservation `json:"observations"`
	Transactions      []domain.Transaction         `json:"transactions"`
	ConsultationTypes []domain.ConsultationType    `json:"consultationTypes"`
	BlockedDays       []domain.BlockedDay          `json:"blockedDays"`
	NotificationLogs  []domain.NotificationLog     `json:"notificationLogs"`
	AuditLogs         []domain.AuditLogEntry       `json:"auditLogs"`
	Settings          DocumentSettings             `json:"settings"`
}

// Report counts the rows a restore wrote to the database.
type Report struct {
	Saved  map[string]int `json:"saved"`
	Failed int            `json:"failed"`
	Errors []string       `json:"errors,omitempty"`
}

type Archive struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ObjectStore is the subset of *s3.Client used for archives.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Export(ctx context.Context) Document
	// Restore replaces the whole state with doc and then saves every row
	// one by one. Rows that fail to save stay in memory and are reported.
	Restore(ctx context.Context, doc Document) (Report, error)

	Archive(ctx context.Context) (Archive, error)
	Archives(ctx context.Context) ([]s3.Object, error)
	RestoreArchive(ctx context.Context, key string) (Report, error)
}

// Decode reads and validates a backup document.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type backupService struct {
	store   *state.Store
	audit   audit.Service
	objects ObjectStore
	clock   domain.Clock
	log     *slog.Logger
}

// New builds the service. A nil objects disables archiving.
func New(store *state.Store, auditSvc audit.Service, objects ObjectStore, clock domain.Clock, log *slog.Logger) Service {
	return &backupService{
		store:   store,
		audit:   auditSvc,
		objects: objects,
		clock:   clock,
		log:     log.With("service", "backup"),
	}
}

func (s *backupService) Export(_ context.Context) Document {
	data := s.store.Snapshot()
	return Document{
		Version:           Version,
		Timestamp:         s.clock.Now(),
		Patients:          data.Patients,
		Appointments:      data.Appointments,
		Notes:             data.SessionNotes,
		Observations:      data.InternalObservations,
		Transactions:      data.Transactions,
		ConsultationTypes: data.ConsultationTypes,
		BlockedDays:       data.BlockedDays,
		NotificationLogs:  data.NotificationLogs,
		AuditLogs:         data.AuditLogs,
		Settings: DocumentSettings{
			ProfileImage:   data.Settings.ProfileImage,
			SignatureImage: data.Settings.SignatureImage,
		},
	}
}

func (s *backupService) Restore(ctx context.Context, doc Document) (Report, error) {
	if doc.Version != Version {
		return Report{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}

	current := s.store.Settings()
	s.store.Replace(state.Collections{
		Patients:             doc.Patients,
		Appointments:         doc.Appointments,
		SessionNotes:         doc.Notes,
		InternalObservations: doc.Observations,
		Transactions:         doc.Transactions,
		ConsultationTypes:    doc.ConsultationTypes,
		BlockedDays:          doc.BlockedDays,
		NotificationLogs:     doc.NotificationLogs,
		AuditLogs:            doc.AuditLogs,
		Settings: domain.Settings{
			Password:       current.Password,
			ProfileImage:   doc.Settings.ProfileImage,
			SignatureImage: doc.Settings.SignatureImage,
		},
	})

	rep := Report{Saved: map[string]int{}}
	replay(ctx, &rep, "patients", doc.Patients, s.store.SavePatient)
	replay(ctx, &rep, "appointments", doc.Appointments, s.store.SaveAppointment)
	replay(ctx, &rep, "session_notes", doc.Notes, s.store.SaveSessionNote)
	replay(ctx, &rep, "internal_observations", doc.Observations, s.store.SaveObservation)
	replay(ctx, &rep, "transactions", doc.Transactions, s.store.SaveTransaction)
	replay(ctx, &rep, "consultation_types", doc.ConsultationTypes, s.store.SaveConsultationType)
	replay(ctx, &rep, "blocked_days", doc.BlockedDays, s.store.SaveBlockedDay)
	replay(ctx, &rep, "notification_logs", doc.NotificationLogs, s.store.AppendNotification)
	replay(ctx, &rep, "audit_logs", doc.AuditLogs, s.store.AppendAudit)

	for key, value := range map[string]string{
		domain.SettingProfileImage:   doc.Settings.ProfileImage,
		domain.SettingSignatureImage: doc.Settings.SignatureImage,
	} {
		if res := s.store.SetSetting(ctx, key, value); res.Err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, res.Err.Error())
			continue
		}
		rep.Saved["app_settings"]++
	}

	s.log.InfoContext(ctx, "backup restored",
		slog.Time("backup_timestamp", doc.Timestamp),
		slog.Int("patients", len(doc.Patients)),
		slog.Int("appointments", len(doc.Appointments)),
		slog.Int("failed", rep.Failed),
	)
	_ = s.audit.Record(ctx, audit.ActionRestore, domain.EntityBackup, doc.Timestamp.Format(time.RFC3339),
		fmt.Sprintf("Backup restaurado: %d pacientes, %d agendamentos", len(doc.Patients), len(doc.Appointments)))
	return rep, nil
}

// replay saves items one at a time. Failed rows are not removed from memory;
// the store reverts an upsert to the previous value, which is the row itself.
func replay[T domain.Entity](ctx context.Context, rep *Report, table string, items []T, save func(context.Context, T) state.Result) {
	for _, item := range items {
		res := save(ctx, item)
		if res.Err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, res.Err.Error())
			continue
		}
		rep.Saved[table]++
	}
}

// ---------------------------------------------------------------------------
// Archives
// ---------------------------------------------------------------------------

func (s *backupService) Archive(ctx context.Context) (Archive, error) {
	if s.objects == nil {
		return Archive{}, ErrArchiveDisabled
	}
	doc := s.Export(ctx)
	body, err := json.Marshal(doc)
	if err != nil {
		return Archive{}, fmt.Errorf("encode backup: %w", err)
	}

	key := archivePrefix + doc.Timestamp.UTC().Format("20060102T150405Z") + ".json"
	if err := s.objects.Upload(ctx, key, "application/json", body); err != nil {
		return Archive{}, fmt.Errorf("archive backup: %w", err)
	}
	url, err := s.objects.PresignDownload(ctx, key)
	if err != nil {
		return Archive{Key: key}, fmt.Errorf("archive backup: %w", err)
	}

	s.log.InfoContext(ctx, "backup archived", slog.String("key", key), slog.Int("bytes", len(body)))
	return Archive{Key: key, URL: url}, nil
}

func (s *backupService) Archives(ctx context.Context) ([]s3.Object, error) {
	if s.objects == nil {
		return nil, ErrArchiveDisabled
	}
	return s.objects.List(ctx, archivePrefix)
}

func (s *backupService) RestoreArchive(ctx context.Context, key string) (Report, error) {
	if s.objects == nil {
		return Report{}, ErrArchiveDisabled
	}
	body, err := s.objects.Download(ctx, key)
	if err != nil {
		return Report{}, fmt.Errorf("fetch archive: %w", err)
	}
	doc, err := Decode(bytes.NewReader(body))
	if err != nil {
		return Report{}, fmt.Errorf("decode archive %s: %w", key, err)
	}
	return s.Restore(ctx, doc)
}
