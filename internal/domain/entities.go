package domain

import "time"

// Entity is anything persisted in a table keyed by a string id.
type Entity interface {
	Key() string
}

type Patient struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	CPF       string         `json:"cpf" db:"cpf"`
	Phone     string         `json:"phone" db:"phone"`
	Email     string         `json:"email" db:"email"`
	BirthDate string         `json:"birthDate" db:"birth_date"`
	Address   string         `json:"address" db:"address"`
	Anamnesis map[string]any `json:"anamnesis" db:"anamnesis"`
	IsActive  bool           `json:"isActive" db:"is_active"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

func (p Patient) Key() string { return p.ID }

// BirthdayOn reports whether the patient's birth month and day match date.
// Both are YYYY-MM-DD strings.
func (p Patient) BirthdayOn(date string) bool {
	if len(p.BirthDate) < 10 || len(date) < 10 {
		return false
	}
	return p.BirthDate[5:10] == date[5:10]
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
)

// Terminal reports whether no further transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

type Appointment struct {
	ID                 string            `json:"id" db:"id"`
	PatientID          string            `json:"patientId" db:"patient_id"`
	PatientName        string            `json:"patientName" db:"patient_name"`
	Date               string            `json:"date" db:"date"`
	Time               string            `json:"time" db:"time"`
	Status             AppointmentStatus `json:"status" db:"status"`
	ConsultationTypeID string            `json:"consultationTypeId" db:"consultation_type_id"`
	Price              float64           `json:"price" db:"price"`
	ReminderSent       bool              `json:"reminderSent" db:"reminder_sent"`
	Notes              string            `json:"notes" db:"notes"`
	CreatedAt          time.Time         `json:"createdAt" db:"created_at"`
}

func (a Appointment) Key() string { return a.ID }

type ConsultationType struct {
	ID              string  `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	Price           float64 `json:"price" db:"price"`
	DurationMinutes int     `json:"durationMinutes" db:"duration_minutes"`
}

func (c ConsultationType) Key() string { return c.ID }

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type Transaction struct {
	ID            string          `json:"id" db:"id"`
	Type          TransactionType `json:"type" db:"type"`
	Description   string          `json:"description" db:"description"`
	Amount        float64         `json:"amount" db:"amount"`
	Date          string          `json:"date" db:"date"`
	Category      string          `json:"category" db:"category"`
	AppointmentID string          `json:"appointmentId,omitempty" db:"appointment_id"`
	PatientID     string          `json:"patientId,omitempty" db:"patient_id"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

func (t Transaction) Key() string { return t.ID }

type SessionNote struct {
	ID            string    `json:"id" db:"id"`
	PatientID     string    `json:"patientId" db:"patient_id"`
	AppointmentID string    `json:"appointmentId,omitempty" db:"appointment_id"`
	Date          string    `json:"date" db:"date"`
	Content       string    `json:"content" db:"content"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

func (n SessionNote) Key() string { return n.ID }

// InternalObservation is a private practitioner note, kept apart from the
// patient's record notes.
type InternalObservation struct {
	ID        string    `json:"id" db:"id"`
	PatientID string    `json:"patientId" db:"patient_id"`
	Date      string    `json:"date" db:"date"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (o InternalObservation) Key() string { return o.ID }

type BlockedDay struct {
	ID     string `json:"id" db:"id"`
	Date   string `json:"date" db:"date"`
	Reason string `json:"reason" db:"reason"`
}

func (b BlockedDay) Key() string { return b.ID }

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

type NotificationKind string

const (
	KindReminder NotificationKind = "reminder"
	KindBirthday NotificationKind = "birthday"
)

// ReminderSource names the call site that dispatched a reminder.
type ReminderSource string

const (
	SourceManual      ReminderSource = "manual"
	SourcePostBooking ReminderSource = "post_booking"
	SourceDailyCheck  ReminderSource = "daily_check"
	SourceWorker      ReminderSource = "worker"
)

type NotificationLog struct {
	ID            string           `json:"id" db:"id"`
	AppointmentID string           `json:"appointmentId,omitempty" db:"appointment_id"`
	PatientID     string           `json:"patientId" db:"patient_id"`
	PatientName   string           `json:"patientName" db:"patient_name"`
	Channel       Channel          `json:"channel" db:"channel"`
	Kind          NotificationKind `json:"kind" db:"kind"`
	Source        ReminderSource   `json:"source" db:"source"`
	Message       string           `json:"message" db:"message"`
	SentAt        time.Time        `json:"sentAt" db:"sent_at"`
}

func (n NotificationLog) Key() string { return n.ID }

type AuditLogEntry struct {
	ID        string    `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	Entity    string    `json:"entity" db:"entity"`
	EntityID  string    `json:"entityId" db:"entity_id"`
	Details   string    `json:"details" db:"details"`
	User      string    `json:"user" db:"user_name"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

func (e AuditLogEntry) Key() string { return e.ID }

// Settings keys stored in app_settings.
const (
	SettingPassword       = "password"
	SettingProfileImage   = "profileImage"
	SettingSignatureImage = "signatureImage"
)

type Settings struct {
	Password       string `json:"-"`
	ProfileImage   string `json:"profileImage"`
	SignatureImage string `json:"signatureImage"`
}

// Entity names used in audit entries.
const (
	EntityPatient          = "patient"
	EntityAppointment      = "appointment"
	EntityTransaction      = "transaction"
	EntityConsultationType = "consultation_type"
	EntitySessionNote      = "session_note"
	EntityObservation      = "internal_observation"
	EntityBlockedDay       = "blocked_day"
	EntitySettings         = "settings"
	EntityBackup           = "backup"
	EntitySession          = "session"
)
