package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsdigest/internal/domain"
)

// DigestRunner выполняет один запуск рассылки.
// Используется для внедрения зависимости в воркер.
type DigestRunner interface {
	Run(ctx context.Context, categories []string, recipients []string) (domain.RunResult, error)
}

// Worker запускает рассылку по cron-расписанию в заданном часовом поясе.
// Одновременно выполняется не больше одного запуска: если предыдущий еще
// не закончился, очередной пропускается.
type Worker struct {
	runner     DigestRunner
	cron       *cron.Cron
	schedule   string
	location   *time.Location
	runTimeout time.Duration
	log        *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New создает воркер. schedule - стандартное cron-выражение из пяти полей
// или дескриптор вида @daily, timezone - имя из базы IANA.
// runTimeout <= 0 означает запуск без ограничения по времени.
func New(runner DigestRunner, schedule, timezone string, runTimeout time.Duration, log *slog.Logger) (*Worker, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	log = log.With(slog.String("component", "worker"))
	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	w := &Worker{
		runner:     runner,
		cron:       c,
		schedule:   schedule,
		location:   loc,
		runTimeout: runTimeout,
		log:        log,
		ctx:        context.Background(),
	}
	if _, err := c.AddFunc(schedule, w.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start запускает планировщик в отдельной горутине.
func (w *Worker) Start() {
	w.mu.Lock()
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()
	w.cron.Start()
	w.log.Info("Digest worker started",
		slog.String("schedule", w.schedule),
		slog.String("timezone", w.location.String()),
		slog.Time("next_run", w.NextRun()),
	)
}

// Stop отменяет текущий запуск и ждет его завершения.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	<-w.cron.Stop().Done()
	w.log.Info("Worker stopped")
}

// NextRun возвращает время следующего запуска или нулевое время, если планировщик не запущен.
func (w *Worker) NextRun() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Location возвращает часовой пояс расписания.
func (w *Worker) Location() *time.Location { return w.location }

func (w *Worker) runScheduled() {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	w.RunOnce(ctx)
}

// RunOnce выполняет запуск по всем категориям и логирует итог.
// Ошибка доставки логируется: следующий запуск состоится по расписанию.
func (w *Worker) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if w.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.runTimeout)
		defer cancel()
	}
	start := time.Now()
	result, err := w.runner.Run(ctx, nil, nil)
	if err != nil {
		w.log.Error("Scheduled digest run failed",
			slog.String("run_id", result.RunID),
			slog.Any("error", err),
		)
		return
	}
	w.log.Info("Scheduled digest run completed",
		slog.String("run_id", result.RunID),
		slog.String("status", string(result.Status)),
		slog.Int("items", result.ItemCount),
		slog.Duration("duration", time.Since(start)),
	)
}

// cronLogger направляет внутренние сообщения cron в slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.Any("error", err)}, keysAndValues...)
	l.log.Error("cron: "+msg, args...)
}
