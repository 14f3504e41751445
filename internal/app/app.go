package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"newsdigest/internal/adapter/fetcher"
	"newsdigest/internal/adapter/mailer"
	"newsdigest/internal/adapter/normalize"
	"newsdigest/internal/adapter/parser"
	"newsdigest/internal/bookmarks"
	"newsdigest/internal/collector"
	"newsdigest/internal/config"
	"newsdigest/internal/domain"
	"newsdigest/internal/freshness"
	"newsdigest/internal/metrics"
	"newsdigest/internal/migrations"
	"newsdigest/internal/render"
	server "newsdigest/internal/transport/http"
	"newsdigest/internal/usecase"
	"newsdigest/internal/worker"
	"newsdigest/storage"
)

// App представляет приложение News Digest.
// Связывает конфигурацию, пайплайн сборки дайджеста, доставку, хранилище
// и метрики. Режимы работы (send, preview, collect, serve) - методы App.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	db       *storage.PostgresDB
	files    *bookmarks.FileStore
	now      func() time.Time
	digest   *usecase.DigestUseCase
	preview  *usecase.PreviewUseCase
	renderer *render.Renderer
}

// Option меняет настройки App при создании.
type Option func(*App)

// WithClock подменяет часы приложения.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New создает приложение по проверенной конфигурации. Если используется
// PostgreSQL, подключается к базе и применяет миграции.
// Доставка не требует настроек на этом этапе: их проверяет Send.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	a := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if cfg.Bookmarks.Path != "" {
		a.files = bookmarks.NewFileStore(cfg.Bookmarks.Path)
	}
	if cfg.UsesPostgres() {
		if err := a.connectDB(ctx); err != nil {
			return nil, err
		}
	}
	fetchTimeout, err := time.ParseDuration(cfg.App.FetchTimeout)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("bad init app: %w", err)
	}
	deliveryTimeout, err := time.ParseDuration(cfg.Delivery.Timeout)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("bad init app: %w", err)
	}

	checker := freshness.NewChecker(cfg.App.FreshnessWindowHours, a.now)
	processor := usecase.NewFeedProcessingUseCase(
		fetcher.NewHTTPFetcher(fetchTimeout, cfg.App.UserAgent, log),
		parser.NewFeedParser(log),
		normalize.New(cfg.App.SummaryLength),
		checker,
		cfg.App.EntriesPerSource,
		log,
	)
	aggregator := usecase.NewAggregator(processor, cfg.App.FetchConcurrency, cfg.App.ItemsPerCategory, a.metrics, log)

	var contexts usecase.ContextLoader
	switch {
	case cfg.Bookmarks.Backend == config.BackendPostgres:
		contexts = bookmarks.NewProvider(a.db, cfg.Bookmarks.MaxAgeHours, a.now, log).WithObserver(a.metrics)
	case a.files != nil:
		contexts = bookmarks.NewProvider(a.files, cfg.Bookmarks.MaxAgeHours, a.now, log).WithObserver(a.metrics)
	}

	a.renderer = render.New(renderOptions(cfg.Delivery))
	var resend usecase.Mailer
	if cfg.ValidateDelivery() == nil {
		resend = mailer.NewResendMailer(cfg.Delivery.APIURL, cfg.Delivery.APIKey, cfg.Delivery.From, deliveryTimeout, log)
	}
	a.digest = usecase.NewDigestUseCase(
		usecase.DigestOptions{
			Feeds:         feedSources(cfg.App.Feeds),
			Order:         cfg.Categories(),
			Recipients:    cfg.Delivery.Recipients,
			ReminderCount: cfg.Bookmarks.ReminderCount,
		},
		aggregator,
		contexts,
		checker,
		a.renderer,
		resend,
		a.metrics,
		log,
	)
	if a.db != nil {
		a.digest.WithJournal(a.db)
	}
	a.preview = usecase.NewPreviewUseCase(a.digest, a.renderer)
	return a, nil
}

func (a *App) connectDB(ctx context.Context) error {
	log := a.logger.With(slog.String("component", "database"))
	dbPool, err := pgxpool.New(ctx, a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("Database connection established")
	if err := migrations.Apply(ctx, a.logger, dbPool); err != nil {
		dbPool.Close()
		return fmt.Errorf("migrations failed: %w", err)
	}
	a.db = storage.NewPostgresDB(dbPool, a.logger)
	return nil
}

// feedSources переводит ленты из конфигурации в доменные источники с категорией.
func feedSources(feeds map[string][]config.FeedSource) map[string][]domain.FeedSource {
	out := make(map[string][]domain.FeedSource, len(feeds))
	for category, list := range feeds {
		sources := make([]domain.FeedSource, 0, len(list))
		for _, f := range list {
			sources = append(sources, domain.FeedSource{URL: f.URL, Title: f.Title, Category: category})
		}
		out[category] = sources
	}
	return out
}

func renderOptions(cfg config.DeliveryConfig) render.Options {
	opts := render.Options{
		Brand:              cfg.Brand,
		SubjectPrefix:      cfg.SubjectPrefix,
		ItemsPerSection:    cfg.ItemsPerSection,
		TopStoryCategories: cfg.TopStoryCategories,
	}
	if len(cfg.Sections) > 0 {
		opts.Sections = make([]render.Section, 0, len(cfg.Sections))
		for _, s := range cfg.Sections {
			opts.Sections = append(opts.Sections, render.Section{Key: s.Key, Title: s.Title, Color: s.Color})
		}
	}
	return opts
}

// Send собирает дайджест и отправляет его. Пустые categories - все категории,
// пустые recipients - получатели из конфигурации.
func (a *App) Send(ctx context.Context, categories, recipients []string) (domain.RunResult, error) {
	if err := a.config.ValidateDelivery(); err != nil {
		return domain.RunResult{}, fmt.Errorf("invalid delivery config: %w", err)
	}
	if len(recipients) == 0 && len(a.config.Delivery.Recipients) == 0 {
		return domain.RunResult{}, errors.New("no recipients: set delivery.recipients or pass them as arguments")
	}
	return a.digest.Run(ctx, categories, recipients)
}

// Preview собирает дайджест без отправки и пишет HTML письма в w.
// Возвращает тему письма.
func (a *App) Preview(ctx context.Context, categories []string, w io.Writer) (string, error) {
	subject, html, err := a.preview.RenderDigest(ctx, categories)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, html); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}
	return subject, nil
}

// Collect читает выгрузку закладок и записывает контекст во все настроенные хранилища:
// файл артефакта и, если подключена база, таблицу bookmark_context.
func (a *App) Collect(ctx context.Context, export io.Reader) (*domain.BookmarkContext, error) {
	list, err := collector.LoadExport(export)
	if err != nil {
		return nil, err
	}
	var sinks []collector.ArtifactWriter
	if a.files != nil {
		sinks = append(sinks, a.files)
	}
	if a.db != nil {
		sinks = append(sinks, a.db)
	}
	if len(sinks) == 0 {
		return nil, errors.New("no bookmark context sink configured")
	}
	return collector.New(sinks, a.config.Bookmarks.WindowHours, a.now, a.logger).Collect(ctx, list)
}

// Handler возвращает HTTP-обработчик API предпросмотра.
func (a *App) Handler() http.Handler {
	handler := server.NewHandler(a.logger, a.preview, nil)
	if a.db != nil {
		handler = server.NewHandler(a.logger, a.preview, a.db)
	}
	return server.NewServer(a.logger, handler, a.metrics.Handler())
}

// Serve запускает HTTP API и рассылку по расписанию.
// Блокируется до сигнала SIGINT/SIGTERM или отмены ctx, затем выполняет graceful shutdown.
func (a *App) Serve(ctx context.Context) error {
	if err := a.config.ValidateDelivery(); err != nil {
		return fmt.Errorf("invalid delivery config: %w", err)
	}
	w, err := worker.New(a.digest, a.config.Schedule.Cron, a.config.Schedule.Timezone, 0, a.logger)
	if err != nil {
		return fmt.Errorf("bad init worker: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(a.config.Server.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("bad init server: %w", err)
	}
	listener, err := net.Listen("tcp", a.config.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	httpServer := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.logger.Info("Starting News Digest",
		slog.String("component", "app"),
		slog.Int("categories", len(a.config.Categories())),
		slog.String("address", listener.Addr().String()),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	w.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received", slog.String("component", "app"))
	case err := <-serveErr:
		a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	w.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("component", "server"), slog.Any("error", err))
	}
	wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return runErr
}

// Close освобождает соединения с базой.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}
