package checks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
)

type Name string

const (
	Welcome           Name = "welcome"
	Birthday          Name = "birthday"
	Reminder          Name = "reminder"
	TodayAppointments Name = "today_appointments"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// View is what the predicates and presenters look at.
type View struct {
	Data     state.Collections
	Today    string
	Tomorrow string
}

// Prompt is the payload of one open check.
type Prompt struct {
	Name              Name                 `json:"name"`
	Position          int                  `json:"position"`
	NeedsPassword     bool                 `json:"needsPassword,omitempty"`
	NeedsProfileImage bool                 `json:"needsProfileImage,omitempty"`
	Patients          []domain.Patient     `json:"patients,omitempty"`
	Appointments      []domain.Appointment `json:"appointments,omitempty"`
}

// Check describes one step of the post-login queue.
type Check struct {
	Name      Name
	Predicate func(View) bool
	Present   func(View) Prompt
}

// DefaultQueue is the post-login order.
func DefaultQueue() []Check {
	return []Check{
		{
			Name: Welcome,
			Predicate: func(v View) bool {
				return v.Data.Settings.Password == "" || v.Data.Settings.ProfileImage == ""
			},
			Present: func(v View) Prompt {
				return Prompt{
					NeedsPassword:     v.Data.Settings.Password == "",
					NeedsProfileImage: v.Data.Settings.ProfileImage == "",
				}
			},
		},
		{
			Name:      Birthday,
			Predicate: func(v View) bool { return len(birthdays(v)) > 0 },
			Present:   func(v View) Prompt { return Prompt{Patients: birthdays(v)} },
		},
		{
			Name:      Reminder,
			Predicate: func(v View) bool { return len(unreminded(v)) > 0 },
			Present:   func(v View) Prompt { return Prompt{Appointments: unreminded(v)} },
		},
		{
			Name:      TodayAppointments,
			Predicate: func(v View) bool { return len(scheduledOn(v.Data.Appointments, v.Today)) > 0 },
			Present:   func(v View) Prompt { return Prompt{Appointments: scheduledOn(v.Data.Appointments, v.Today)} },
		},
	}
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Coordinator shows at most one check at a time per session.
type Coordinator interface {
	// Start rewinds the session to the head of the queue and opens the first
	// check that has something to show. A nil prompt means nothing to show.
	Start(ctx context.Context, sessionID string) (*Prompt, error)
	// Current returns the open prompt, or nil.
	Current(ctx context.Context, sessionID string) (*Prompt, error)
	// Dismiss closes the open prompt and opens the next one.
	Dismiss(ctx context.Context, sessionID string, name Name) (*Prompt, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type position struct {
	Index int `json:"index"`
}

type coordinator struct {
	store *state.Store
	queue []Check
	pos   redis.KV
	ttl   time.Duration
	clock domain.Clock
	log   *slog.Logger
}

func New(store *state.Store, queue []Check, pos redis.KV, ttl time.Duration, clock domain.Clock, log *slog.Logger) Coordinator {
	if len(queue) == 0 {
		queue = DefaultQueue()
	}
	return &coordinator{
		store: store,
		queue: queue,
		pos:   pos,
		ttl:   ttl,
		clock: clock,
		log:   log.With("service", "checks"),
	}
}

func (c *coordinator) Start(ctx context.Context, sessionID string) (*Prompt, error) {
	return c.openFrom(ctx, sessionID, 0)
}

func (c *coordinator) Current(ctx context.Context, sessionID string) (*Prompt, error) {
	var p position
	ok, err := c.pos.Get(ctx, sessionID, &p)
	if err != nil {
		return nil, fmt.Errorf("load check position: %w", err)
	}
	if !ok || p.Index < 0 || p.Index >= len(c.queue) {
		return nil, nil
	}
	if v := c.view(); c.queue[p.Index].Predicate(v) {
		return c.present(p.Index, v), nil
	}
	// The open check has nothing left to show, e.g. every reminder was sent.
	return c.openFrom(ctx, sessionID, p.Index+1)
}

func (c *coordinator) Dismiss(ctx context.Context, sessionID string, name Name) (*Prompt, error) {
	if c.indexOf(name) < 0 {
		return nil, ErrUnknownCheck
	}

	var p position
	ok, err := c.pos.Get(ctx, sessionID, &p)
	if err != nil {
		return nil, fmt.Errorf("load check position: %w", err)
	}
	if !ok || p.Index >= len(c.queue) || c.queue[p.Index].Name != name {
		return nil, ErrNotCurrent
	}
	return c.openFrom(ctx, sessionID, p.Index+1)
}

// openFrom opens the first check at or after from whose predicate holds.
func (c *coordinator) openFrom(ctx context.Context, sessionID string, from int) (*Prompt, error) {
	v := c.view()
	for i := from; i < len(c.queue); i++ {
		if !c.queue[i].Predicate(v) {
			continue
		}
		if err := c.pos.Put(ctx, sessionID, position{Index: i}, c.ttl); err != nil {
			return nil, fmt.Errorf("save check position: %w", err)
		}
		c.log.DebugContext(ctx, "check opened", slog.String("check", string(c.queue[i].Name)))
		return c.present(i, v), nil
	}

	if err := c.pos.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("clear check position: %w", err)
	}
	return nil, nil
}

func (c *coordinator) present(i int, v View) *Prompt {
	p := c.queue[i].Present(v)
	p.Name = c.queue[i].Name
	p.Position = i
	return &p
}

func (c *coordinator) view() View {
	return View{Data: c.store.Snapshot(), Today: c.clock.Today(), Tomorrow: c.clock.Tomorrow()}
}

func (c *coordinator) indexOf(name Name) int {
	for i, ch := range c.queue {
		if ch.Name == name {
			return i
		}
	}
	return -1
}

func birthdays(v View) []domain.Patient {
	var out []domain.Patient
	for _, p := range v.Data.Patients {
		if p.IsActive && p.BirthdayOn(v.Today) {
			out = append(out, p)
		}
	}
	return out
}

func unreminded(v View) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range scheduledOn(v.Data.Appointments, v.Tomorrow) {
		if !a.ReminderSent {
			out = append(out, a)
		}
	}
	return out
}

func scheduledOn(all []domain.Appointment, date string) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range all {
		if a.Date == date && a.Status == domain.StatusScheduled {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
