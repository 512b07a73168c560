package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"heronnest/internal/config"
	"heronnest/internal/database"
	"heronnest/internal/docstore"
	handlers "heronnest/internal/handler"
	"heronnest/internal/identity"
	"heronnest/internal/metrics"
	"heronnest/internal/middleware"
	"heronnest/internal/notify"
	"heronnest/internal/redaction"
	"heronnest/internal/repository"
	"heronnest/internal/service"
	"heronnest/internal/storage"
)

// App is the wired server. Close releases the database and the document
// store.
type App struct {
	Handler  http.Handler
	Services *service.Service
	closers  []io.Closer
	logger   *logrus.Logger
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.WithError(err).Warn("failed to close resource")
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{logger: logger}

	m := metrics.InitMetrics(prometheus.DefaultRegisterer)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closerFunc(db.CloseDB))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	blobs, err := storage.NewMinIOClient(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialise minio: %w", err)
	}

	repo := repository.NewRepository(store)
	accounts := identity.NewAccountRepository(db.DB)
	provider := identity.NewProvider(accounts, cfg.RecentLoginWindow)
	tokens := identity.NewTokenIssuer(cfg.JWTSecretKey, cfg.AccessTokenDuration, cfg.RefreshTokenDuration)

	dispatcher := notify.NewDispatcher(repo.Profiles, notify.NewExpoClient(cfg.Push), logger, m)
	coordinator := redaction.NewCoordinator(store, blobs, provider, cfg.PurgeConcurrency, logger, m)

	a.Services = service.NewService(service.Deps{
		Repo:     repo,
		Accounts: accounts,
		Tokens:   tokens,
		Purger:   coordinator,
		Blobs:    blobs,
		Notifier: dispatcher,
		Logger:   logger,
	}, cfg)

	if cfg.SeedEventsFile != "" {
		if err := seedEvents(ctx, a.Services.Event, cfg.SeedEventsFile); err != nil {
			logger.WithError(err).Warn("event seeding failed")
		}
	}

	h := handlers.NewHandlers(a.Services, db, cfg, logger)

	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware(m))
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	h.Routes(router)

	a.Handler = middleware.Chain(
		router,
		middleware.AuthMiddleware(a.Services.Auth),
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware(logger),
	)

	return a, nil
}

// openStore uses Firestore when a project is configured and an in-process
// store otherwise, which keeps local runs free of cloud credentials.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (docstore.Store, error) {
	if cfg.Firestore.ProjectID == "" {
		logger.Warn("FIRESTORE_PROJECT_ID not set, using in-memory document store")
		return docstore.NewMemory(), nil
	}

	store, err := docstore.NewFirestore(ctx, cfg.Firestore)
	if err != nil {
		return nil, err
	}
	logger.WithField("project_id", cfg.Firestore.ProjectID).Info("connected to firestore")
	return store, nil
}

// seedFile is the JSON layout of SEED_EVENTS_FILE.
type seedFile struct {
	Batch        string                 `json:"batch"`
	CreatorID    string                 `json:"creatorId"`
	CreatorEmail string                 `json:"creatorEmail"`
	Events       []service.EventRequest `json:"events"`
}

func seedEvents(ctx context.Context, events service.EventService, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range seed.Events {
		seed.Events[i].UserID = seed.CreatorID
		seed.Events[i].UserEmail = seed.CreatorEmail
	}

	_, err = events.SeedEvents(ctx, seed.Batch, seed.Events)
	return err
}
