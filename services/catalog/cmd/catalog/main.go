package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/media-catalog/internal/platform/auth"
	platformcfg "github.com/example/media-catalog/internal/platform/config"
	"github.com/example/media-catalog/internal/platform/db"
	"github.com/example/media-catalog/internal/platform/httpserver"
	"github.com/example/media-catalog/internal/platform/logging"
	"github.com/example/media-catalog/internal/platform/natsconn"
	"github.com/example/media-catalog/internal/platform/run"
	"github.com/example/media-catalog/services/catalog/internal/cache"
	catalogcfg "github.com/example/media-catalog/services/catalog/internal/config"
	"github.com/example/media-catalog/services/catalog/internal/engagement"
	"github.com/example/media-catalog/services/catalog/internal/events"
	"github.com/example/media-catalog/services/catalog/internal/handlers"
	"github.com/example/media-catalog/services/catalog/internal/likes"
	"github.com/example/media-catalog/services/catalog/internal/store"
)

func main() {
	cfg, err := platformcfg.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.ForService(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	svcCfg := catalogcfg.LoadCatalog()

	tracks, pool, closePool := initTracks(log, svcCfg.DatabaseURL, cfg.IsProd())
	if closePool != nil {
		defer closePool()
	}

	tracker, err := likes.NewTracker(likes.Options{
		RedisURL: svcCfg.RedisURL,
		Pool:     pool,
		TTL:      svcCfg.LikeTTL,
		IsProd:   cfg.IsProd(),
	})
	if err != nil {
		log.Error("like tracker init", zap.Error(err))
		run.Exit(1)
	}

	viewCache := initCache(log, svcCfg.RedisURL, svcCfg.CacheTTL, cfg.IsProd())
	publisher, nc := initEvents(log, svcCfg.NATSURL)
	if nc != nil {
		defer nc.Close()
	}

	engine := engagement.New(engagement.Options{
		Logger: log,
		Tracks: tracks,
		Likes:  tracker,
		Cache:  viewCache,
		Events: publisher,
	})

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	verifier := auth.JWTVerifier{Secret: []byte(jwtSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	// Public reads
	r.Get("/v1/tracks", handlers.ListTracks(engine))
	r.Get("/v1/tracks/search", handlers.SearchTracks(engine))
	r.Get("/v1/tracks/trending", handlers.TrendingTracks(engine))
	r.Get("/v1/tracks/top", handlers.TopTracks(engine))
	r.Get("/v1/tracks/{track_id}", handlers.GetTrack(engine))
	r.Get("/v1/artists/{artist_id}/tracks", handlers.TracksByArtist(engine))
	r.Get("/v1/albums/{album_id}/tracks", handlers.TracksByAlbum(engine))
	r.Get("/v1/genres/{genre}/tracks", handlers.TracksByGenre(engine))

	// Play recording counts anonymous listeners too.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Post("/v1/tracks/{track_id}/play", handlers.RecordPlay(engine))
	})

	// Authenticated mutations
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/tracks", handlers.CreateTrack(engine))
		r.Put("/v1/tracks/{track_id}", handlers.UpdateTrack(engine))
		r.Post("/v1/tracks/{track_id}/like", handlers.ToggleLike(engine))
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireAdmin)
		r.Delete("/v1/tracks/{track_id}", handlers.DeleteTrack(engine))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			engine.Drain()
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initTracks selects the TrackStore backend. In production a working
// Postgres connection is required and the process terminates otherwise.
func initTracks(log *zap.Logger, dsn string, isProd bool) (store.TrackStore, *pgxpool.Pool, func()) {
	if dsn == "" {
		if isProd {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory track store (development only)")
		return store.NewInMemoryTrackStore(), nil, nil
	}

	pool, err := db.Open(context.Background(), dsn)
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory track store", zap.Error(err))
		return store.NewInMemoryTrackStore(), nil, nil
	}

	log.Info("track store: postgres")
	return store.NewPostgresTrackStore(pool), pool, pool.Close
}

// initCache selects the view cache backend. Redis in production,
// in-memory otherwise; a missing cache degrades reads, never writes.
func initCache(log *zap.Logger, redisURL string, ttl time.Duration, isProd bool) cache.Cache {
	if redisURL == "" {
		if isProd {
			log.Error("REDIS_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("REDIS_URL not set, using in-memory view cache (development only)")
		return cache.NewMemoryCache()
	}
	c, err := cache.NewRedisCache(redisURL, ttl)
	if err != nil {
		if isProd {
			log.Error("redis cache init failed in production", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("redis cache init failed, using in-memory view cache", zap.Error(err))
		return cache.NewMemoryCache()
	}
	log.Info("view cache: redis")
	return c
}

// initEvents connects the domain event publisher. NATS being down is
// non-fatal: events degrade to the stub and mutations keep working.
func initEvents(log *zap.Logger, natsURL string) (events.Publisher, *nats.Conn) {
	if natsURL == "" {
		p, _ := events.NewNATSPublisher(nil, log)
		return p, nil
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: natsURL})
	if err != nil {
		log.Error("nats connect, events degraded to stub", zap.Error(err))
		p, _ := events.NewNATSPublisher(nil, log)
		return p, nil
	}
	p, err := events.NewNATSPublisher(nc, log)
	if err != nil {
		log.Error("nats publisher init, events degraded to stub", zap.Error(err))
		nc.Close()
		p, _ := events.NewNATSPublisher(nil, log)
		return p, nil
	}
	return p, nc
}
