package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/appointment"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/dashboard"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/patient"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/record"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/scheduling"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
)

type apiFixture struct {
	app *fiber.App
	mem *statetest.Mem
}

// now is Monday 2025-03-10 10:00 UTC.
func newAPI(t *testing.T) apiFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := statetest.NewMem()
	st := state.New(mem.Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), time.UTC)

	auditSvc := audit.New(st, clock, log)
	days := scheduling.New(st, auditSvc, clock,
		config.WorkdayConfig{Start: "08:00", End: "18:00", SlotMinutes: 30, FullFactor: 1.5}, log)
	reminders := reminder.New(st, nil, "Clínica", clock, log)

	ph := NewPatientHandler(patient.New(st, auditSvc, clock, false, log), record.New(st, auditSvc, clock, log))
	ah := NewAppointmentHandler(appointment.New(st, days, auditSvc, redis.NewMemoryKV(), clock, appointment.Policy{}, log), reminders)
	sh := NewScheduleHandler(days)
	rh := NewReportHandler(dashboard.New(st, clock), auditSvc, st)

	app := fiber.New()
	app.Post("/patients", ph.Create)
	app.Get("/patients", ph.List)
	app.Post("/appointments", ah.Create)
	app.Get("/appointments/:id", ah.GetByID)
	app.Post("/schedule/blocked", sh.Block)
	app.Get("/sync", rh.Sync)
	app.Post("/sync", rh.Resync)

	require.NoError(t, st.SavePatient(context.Background(), domain.Patient{
		ID: "p1", Name: "Ana Souza", Phone: "(11) 98765-4321", IsActive: true,
	}).Err)

	return apiFixture{app: app, mem: mem}
}

func (f apiFixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestCreatePatientValidation(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, http.MethodPost, "/patients", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "name", fields[0].(map[string]any)["field"])
}

func TestCreatePatient(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, http.MethodPost, "/patients", map[string]any{"name": "Bruno Lima"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Bruno Lima", body["data"].(map[string]any)["name"])

	code, body = f.do(t, http.MethodGet, "/patients?active=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)

	code, _ = f.do(t, http.MethodGet, "/patients?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWriteRejectedByDatabase(t *testing.T) {
	f := newAPI(t)
	f.mem.Patients.Fail = true

	code, body := f.do(t, http.MethodPost, "/patients", map[string]any{"name": "Bruno Lima"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body["error"], "not persisted")

	code, body = f.do(t, http.MethodGet, "/sync", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]any)["degraded"])

	f.mem.Patients.Fail = false
	code, _ = f.do(t, http.MethodPost, "/patients", map[string]any{"name": "Bruno Lima"})
	require.Equal(t, http.StatusCreated, code)

	_, body = f.do(t, http.MethodGet, "/sync", nil)
	assert.Equal(t, true, body["data"].(map[string]any)["degraded"], "a later success does not clear the indicator")

	code, body = f.do(t, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["data"].(map[string]any)["degraded"])
}

func TestCreateAppointmentOnBlockedDay(t *testing.T) {
	f := newAPI(t)

	code, _ := f.do(t, http.MethodPost, "/schedule/blocked", map[string]any{"date": "2025-03-12", "reason": "Congresso"})
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodPost, "/appointments", map[string]any{
		"patientId": "p1", "date": "2025-03-12", "time": "14:00",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, appointment.ErrDayNotSelectable.Error(), body["error"])
}

func TestCreateAppointmentWithReminder(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, http.MethodPost, "/appointments?remind=whatsapp", map[string]any{
		"patientId": "p1", "date": "2025-03-12", "time": "14:00",
	})
	require.Equal(t, http.StatusCreated, code)

	data := body["data"].(map[string]any)
	appt := data["appointment"].(map[string]any)
	assert.Equal(t, true, appt["reminderSent"])

	link, _ := data["reminder"].(map[string]any)["link"].(string)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/5511987654321?text="), link)
	assert.Equal(t, 1, f.mem.NotificationLogs.Len())
}

func TestCreateAppointmentRejectsUnknownChannel(t *testing.T) {
	f := newAPI(t)

	code, _ := f.do(t, http.MethodPost, "/appointments?remind=sms", map[string]any{
		"patientId": "p1", "date": "2025-03-12", "time": "14:00",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 0, f.mem.Appointments.Len())
}

func TestGetUnknownAppointment(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, http.MethodGet, "/appointments/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, appointment.ErrNotFound.Error(), body["error"])
}
