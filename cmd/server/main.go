package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evaltrack/backend/access"
	"github.com/evaltrack/backend/access/accesshttp"
	"github.com/evaltrack/backend/conf"
	"github.com/evaltrack/backend/export"
	"github.com/evaltrack/backend/export/exporthttp"
	"github.com/evaltrack/backend/hierarchy"
	"github.com/evaltrack/backend/hierarchy/hierarchyhttp"
	"github.com/evaltrack/backend/hierarchy/hierarchypgrepo"
	"github.com/evaltrack/backend/http"
	"github.com/evaltrack/backend/identity"
	"github.com/evaltrack/backend/identity/identitypgrepo"
	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/s3bucket"
	"github.com/evaltrack/backend/session/draft"
	"github.com/evaltrack/backend/session/sessionhttp"
	"github.com/evaltrack/backend/session/sessionpgrepo"
	"github.com/evaltrack/backend/session/sessionsrvc"
	"github.com/evaltrack/backend/tracing"
	"github.com/evaltrack/backend/trainer"
	"github.com/evaltrack/backend/trainer/trainerhttp"
	"github.com/evaltrack/backend/trainer/trainerpgrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg, err := conf.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// stores are the shared documents. listeners feed their change
// notifications and run for as long as the server does.
type stores struct {
	sessions  sessionsrvc.Repo
	trainers  trainer.Repo
	hierarchy hierarchy.Repo
	users     identity.UserStore
	listeners []func(ctx context.Context) error
	close     func()
}

func openStores(ctx context.Context, cfg conf.Config) (stores, error) {
	if cfg.Store == conf.StoreMemory {
		slog.Warn("using in-memory stores, nothing survives a restart")
		return stores{
			sessions:  sessionsrvc.NewInMemSessionRepo(),
			trainers:  trainer.NewInMemTrainerRepo(),
			hierarchy: hierarchy.NewInMemHierarchyRepo(),
			users:     identity.NewInMemUserStore(),
			close:     func() {},
		}, nil
	}

	connStr, err := conf.GetPgConnStrFromEnv(ctx)
	if err != nil {
		return stores{}, err
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return stores{}, fmt.Errorf("failed to create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("failed to reach postgres: %w", err)
	}

	sessions := sessionpgrepo.NewPgSessionRepo(pool)
	trainers := trainerpgrepo.NewPgTrainerRepo(pool)
	return stores{
		sessions:  sessions,
		trainers:  trainers,
		hierarchy: hierarchypgrepo.NewPgHierarchyRepo(pool),
		users:     identitypgrepo.NewPgUserStore(pool),
		listeners: []func(ctx context.Context) error{sessions.Listen, trainers.Listen},
		close:     pool.Close,
	}, nil
}

func openDraftStore(cfg conf.Config) (draft.Store, func(), error) {
	if cfg.DraftDBPath == "" {
		return draft.NewMemStore(), func() {}, nil
	}
	s, err := draft.NewSQLiteStore(cfg.DraftDBPath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			slog.Error("failed to close draft store", "error", err)
		}
	}, nil
}

func run(ctx context.Context, cfg conf.Config) error {
	log := slog.Default().With("env", cfg.Environment)
	ctx = logger.WithLogger(ctx, log)

	if cfg.OtelEndpoint != "" {
		tp, err := tracing.NewTracerProvider(ctx, cfg.OtelEndpoint, cfg.Environment)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to flush traces", "error", err)
			}
		}()
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	drafts, closeDrafts, err := openDraftStore(cfg)
	if err != nil {
		return err
	}
	defer closeDrafts()

	provider := identity.NewProvider(st.users, []byte(cfg.JWTKey), identity.Options{
		TokenTTL:      cfg.TokenTTL,
		MaxAttempts:   cfg.LoginMaxAttempts,
		AttemptWindow: cfg.LoginWindow,
	})
	gate := access.NewGate(provider, st.trainers)
	defer gate.Close()

	srvc := sessionsrvc.NewSessionSrvc(st.sessions)
	workspace := draft.NewWorkspace(
		tracing.NewRemoteTracer(sessionsrvc.NewRemote(srvc)),
		drafts,
		draft.Options{FlushDelay: cfg.DraftFlushDelay},
	)
	// a sign-in that ends stops following its view; other sign-ins of the
	// same trainer keep theirs
	gate.OnSessionEnded(func(s *access.AuthSession, reason access.EndReason) {
		workspace.Close(context.WithoutCancel(ctx), s.ID())
	})

	exporter := export.Exporter{
		ListSessions: srvc.ListSessions.Handle,
		LookupTrainer: func(ctx context.Context, userID uuid.UUID) (trainer.Record, error) {
			return trainer.Lookup(ctx, st.trainers, userID)
		},
	}
	if cfg.ExportBucket != "" {
		bucket, err := s3bucket.NewS3Bucket(ctx, cfg.ExportRegion, cfg.ExportBucket)
		if err != nil {
			return err
		}
		exporter.Uploader = bucket
	}

	auth := gate.Middleware
	server := http.NewHttpServer(http.Options{
		Environment: cfg.Environment,
		Version:     version,
		CORSOrigins: cfg.CORSOrigins,
		Tracing:     cfg.OtelEndpoint != "",
	},
		accesshttp.NewAccessHttpHandler(gate, cfg.CORSOrigins),
		sessionhttp.NewSessionHttpHandler(srvc, workspace, auth),
		hierarchyhttp.NewHierarchyHttpHandler(hierarchy.NewHierarchy(st.hierarchy), auth),
		trainerhttp.NewTrainerHttpHandler(trainer.NewRoster(st.trainers, provider), auth),
		exporthttp.NewExportHttpHandler(exporter, auth),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, listen := range st.listeners {
		listen := listen
		g.Go(func() error {
			err := listen(gctx)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		log.Info("starting server", "address", cfg.HTTPAddr, "store", cfg.Store, "version", version)
		return server.Start(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		// drafts of open views are written before the process goes away
		workspace.CloseAll(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
