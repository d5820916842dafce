package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/email"
)

// WorkerModule registers the background jobs.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Log         *slog.Logger
	Mailer      *email.Client
	ReminderSvc reminder.Service
}

func RegisterWorkers(p WorkerParams) {
	wc := p.Cfg.Reminders.Worker
	log := p.Log.With("worker", "reminder_email")

	if !wc.Enabled {
		return
	}
	if !p.Mailer.Enabled() {
		log.Warn("reminder worker enabled but email is disabled, not starting")
		return
	}

	interval := time.Duration(wc.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	w := &reminderWorker{svc: p.ReminderSvc, interval: interval, log: log}
	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return w.stop(ctx)
		},
	})
}

// ---------------------------------------------------------------------------
// reminder_email worker
// ---------------------------------------------------------------------------

// reminderWorker emails tomorrow's pending reminders on a fixed interval.
type reminderWorker struct {
	svc      reminder.Service
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (w *reminderWorker) start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.Info("started", "interval", w.interval)
		for {
			w.run(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (w *reminderWorker) run(ctx context.Context) {
	sent, err := w.svc.SendPending(ctx, domain.ChannelEmail, domain.SourceWorker)
	if err != nil {
		w.log.Warn("send pending reminders", "sent", len(sent), "err", err)
		return
	}
	if len(sent) > 0 {
		w.log.Info("reminders sent", "count", len(sent))
	}
}

func (w *reminderWorker) stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
