package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/config"
	handlers "github.com/servicemarket/missions/internal/handlers/v1alpha1"
	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/service"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/sweep"
	"github.com/servicemarket/missions/internal/sweep/jobs"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/pkg/metrics"
	"github.com/servicemarket/missions/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	schedulerStopTimeout    = 30 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	gateway  notification.Gateway
	listener net.Listener
}

// New returns a new instance of the missions API server.
func New(
	cfg *config.Config,
	store store.Store,
	gateway notification.Gateway,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		gateway:  gateway,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	clock := util.RealClock()
	sweeps := sweep.NewDefaultSet(s.store, s.gateway, clock, *s.cfg.Policy)

	scheduler, err := s.newScheduler(ctx, sweeps)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), schedulerStopTimeout)
			defer cancel()
			if err := scheduler.Stop(stopCtx); err != nil {
				zap.S().Named("api_server").Warnw("failed to stop scheduler", "error", err)
			}
		}()
	}

	h := handlers.NewServiceHandler(
		service.NewMissionService(s.store, clock),
		service.NewEvaluationService(s.store, clock, s.cfg.Policy.CommentMaxLength),
		service.NewReclamationService(s.store, clock),
		sweeps,
	)

	metricMiddleware := metrics.NewMiddleware("api_server")
	if err := metricMiddleware.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register http metrics: %w", err)
	}

	router := chi.NewRouter()
	router.Use(
		util.GatewayApiRewrite(s.cfg.Service.GatewayPrefix),
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", h.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Authenticator)
		h.Routes(r)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// newScheduler returns nil when sweeps are triggered from outside the
// process.
func (s *Server) newScheduler(ctx context.Context, sweeps sweep.Set) (sweep.Scheduler, error) {
	if s.cfg.Scheduler.Backend == "none" {
		zap.S().Named("api_server").Info("no scheduler, sweeps run on external triggers only")
		return nil, nil
	}

	plans, err := sweep.Plans(sweeps, *s.cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	switch s.cfg.Scheduler.Backend {
	case "river":
		pool, err := store.NewPgxPool(ctx, s.cfg)
		if err != nil {
			return nil, err
		}
		client, err := jobs.NewClient(pool, sweeps, plans)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create river client: %w", err)
		}
		return &riverScheduler{Client: client, closePool: pool.Close}, nil
	default:
		return sweep.NewLocalScheduler(plans, s.cfg.Scheduler.Jitter), nil
	}
}

// riverScheduler releases the pool once the river client has stopped.
type riverScheduler struct {
	*jobs.Client
	closePool func()
}

func (r *riverScheduler) Stop(ctx context.Context) error {
	defer r.closePool()
	return r.Client.Stop(ctx)
}
