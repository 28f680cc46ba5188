package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/landreg/apiserver/config"
	"github.com/landreg/apiserver/internal/auth"
	"github.com/landreg/apiserver/internal/catalog"
	"github.com/landreg/apiserver/internal/db"
	"github.com/landreg/apiserver/internal/handlers"
	"github.com/landreg/apiserver/internal/logger"
	"github.com/landreg/apiserver/internal/mq"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/internal/session"
	"github.com/landreg/apiserver/internal/storage"
	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/store/memstore"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *zap.Logger
	closers    []func(ctx context.Context) error
}

type repositories struct {
	users services.UserRepository
	govt  services.GovtEmployeeRepository
	lands services.LandRepository
	sells services.SellLandRepository
}

// New constructs a Server and opens every configured backend. Backends
// opened before a failure are closed again.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (_ *Server, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{log: log}
	defer func() {
		if err != nil {
			_ = s.close(context.WithoutCancel(ctx))
		}
	}()

	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return nil, errors.New("AUTH_SECRET is required")
	}

	repos, err := s.openRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sessions, err := s.openSessions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	objects, err := s.openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	broker, err := s.openBroker(ctx, cfg)
	if err != nil {
		return nil, err
	}

	listings, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	manager, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL, sessions, cfg.Auth.CookieSecure)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	if broker != nil {
		publisher = broker
	}
	events := services.NewEventPublisher(publisher, log.Named("events"))

	userService := services.NewUserService(repos.users, log.Named("users"))
	govtService := services.NewGovtService(repos.govt, log.Named("govt"))
	landService := services.NewLandService(repos.lands, repos.users, objects, events, log.Named("lands"))
	sellService := services.NewSellService(repos.sells, repos.lands, repos.users, events, log.Named("sell"))

	authn := handlers.NewAuthenticator(manager, userService, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logger.Middleware(log.Named("http")),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, handlers.NewAuthHandler(manager, userService, landService, log), authn)
	handlers.GovtRouter(router, handlers.NewGovtHandler(manager, govtService, log))
	handlers.LandRouter(router, handlers.NewLandHandler(landService, sellService, log), authn)
	handlers.SellRouter(router, handlers.NewSellHandler(sellService, log), authn)
	handlers.ReviewRouter(router, handlers.NewReviewHandler(sellService, log), authn)
	router.Route("/api/catalog/lands", func(r chi.Router) {
		handlers.CatalogRouter(r, handlers.NewCatalogHandler(listings, log), cfg.CORSOrigins)
	})
	handlers.PagesRouter(router, cfg.FrontendDir, authn)

	port := cfg.ServerPort
	if port == 0 {
		port = 5001
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	switch cfg.Database.Driver {
	case "memory":
		s.log.Warn("using in-memory database; data is lost on restart")
		mem := memstore.New()
		return repositories{
			users: mem.Users(),
			govt:  mem.GovtEmployees(),
			lands: mem.Lands(),
			sells: mem.SellLands(),
		}, nil
	case "", "postgres":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return repositories{}, fmt.Errorf("open database: %w", err)
		}
		s.onClose(func(context.Context) error { return conn.Close() })
		return repositories{
			users: store.NewUserRepository(conn),
			govt:  store.NewGovtEmployeeRepository(conn),
			lands: store.NewLandRepository(conn),
			sells: store.NewSellLandRepository(conn),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func (s *Server) openSessions(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "", "memory":
		mem := session.NewMemoryStore()
		sweeper, err := session.StartSweeper(mem, s.log.Named("sessions"))
		if err != nil {
			return nil, fmt.Errorf("start session sweeper: %w", err)
		}
		s.onClose(func(context.Context) error {
			sweeper.Stop()
			return nil
		})
		return mem, nil
	case "redis":
		rs, err := session.NewRedisStore(ctx, cfg.Session.RedisURL, cfg.Session.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis sessions: %w", err)
		}
		s.onClose(func(context.Context) error { return rs.Close() })
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// openStorage returns nil when uploads are disabled.
func (s *Server) openStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Storage.Backend {
	case "":
		s.log.Info("object storage disabled; multipart land registration is unavailable")
		return nil, nil
	case "memory":
		backend = storage.NewMemoryClient(cfg.Storage.Minio.Bucket)
	case "minio":
		client, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, fmt.Errorf("open minio: %w", err)
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, fmt.Errorf("open gcs: %w", err)
		}
		s.onClose(func(context.Context) error { return client.Close() })
		backend = client
	case "gridfs":
		client, err := storage.NewGridFSClient(ctx, cfg.Mongo, cfg.Storage.GridFS)
		if err != nil {
			return nil, fmt.Errorf("open gridfs: %w", err)
		}
		s.onClose(client.Close)
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	objects := storage.NewStorage(backend)
	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
	}
	return objects, nil
}

// openBroker returns nil when events are dropped.
func (s *Server) openBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil || broker == nil {
		return nil, err
	}
	s.onClose(func(context.Context) error { return broker.Close() })
	return broker, nil
}

func (s *Server) onClose(fn func(ctx context.Context) error) {
	s.closers = append(s.closers, fn)
}

// close releases backends in reverse opening order.
func (s *Server) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
