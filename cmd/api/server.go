package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/api/handlers/books"
	"github.com/5w1tchy/library-api/internal/api/handlers/readers"
	mw "github.com/5w1tchy/library-api/internal/api/middlewares"
	"github.com/5w1tchy/library-api/internal/api/router"
	"github.com/5w1tchy/library-api/internal/auth"
	"github.com/5w1tchy/library-api/internal/circulation"
	"github.com/5w1tchy/library-api/internal/config"
	"github.com/5w1tchy/library-api/internal/maintenance"
	"github.com/5w1tchy/library-api/internal/models"
	readerdir "github.com/5w1tchy/library-api/internal/readers"
	"github.com/5w1tchy/library-api/internal/repository/sqlconnect"
	"github.com/5w1tchy/library-api/internal/security/password"
	jwtutil "github.com/5w1tchy/library-api/internal/security/jwt"
	"github.com/5w1tchy/library-api/internal/storage/s3"
	bookstore "github.com/5w1tchy/library-api/internal/store/books"
	readerstore "github.com/5w1tchy/library-api/internal/store/readers"
	"github.com/5w1tchy/library-api/internal/validate"
	"github.com/5w1tchy/library-api/pkg/utils"
)

func main() {
	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	for _, w := range validate.HardeningWarnings(cfg.AppEnv) {
		log.Printf("[config] WARNING: %s", w)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Postgres ---
	db, err := sqlconnect.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := sqlconnect.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("[db] connected and migrated")

	// --- Redis (optional: limiters fail open, the sweep runs unlocked) ---
	var rdb *redis.Client
	if opt, ok, err := cfg.RedisOptions(); err != nil {
		log.Fatalf("redis: %v", err)
	} else if ok {
		rdb = redis.NewClient(opt)
		defer rdb.Close()
		if err := validate.PingRedis(rdb, 3*time.Second); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		log.Println("[redis] connected")
	} else {
		log.Println("[redis] not configured; rate limits and sweep lock disabled")
	}

	// --- Core ---
	hasher := password.NewHasher(cfg.Argon2)
	signer := jwtutil.NewSigner(cfg.JWT)

	var dir *readerdir.Directory
	lookup := circulation.ReaderLookupFunc(func(ctx context.Context, id int64) (models.Reader, error) {
		return dir.GetReader(ctx, id)
	})
	engine, err := circulation.New(bookstore.New(db), lookup,
		circulation.WithClock(circulation.SystemClock(cfg.SweepTZ)),
		circulation.WithLogger(logger.With("component", "circulation")),
	)
	if err != nil {
		log.Fatalf("circulation: %v", err)
	}
	dir = readerdir.New(readerstore.New(db), hasher, engine,
		readerdir.WithLogger(logger.With("component", "readers")),
	)

	if cfg.AdminEmail != "" {
		admin, err := dir.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		log.Printf("[bootstrap] administrator is reader %d", admin.ID)
	}

	// --- Past-due sweep ---
	sweepOpts := []maintenance.Option{maintenance.WithClock(circulation.SystemClock(cfg.SweepTZ))}
	if rdb != nil {
		sweepOpts = append(sweepOpts, maintenance.WithLock(rdb))
	}
	if cfg.ReportBucket != "" {
		sink, err := s3.NewClient(ctx, cfg.ReportBucket)
		if err != nil {
			log.Fatalf("report bucket: %v", err)
		}
		sweepOpts = append(sweepOpts, maintenance.WithReportSink(sink))
	}
	if err := maintenance.NewPastDueSweep(engine, sweepOpts...).Start(ctx, cfg.SweepSchedule, cfg.SweepTZ); err != nil {
		log.Fatalf("sweep: %v", err)
	}

	// --- HTTP ---
	deps := router.Deps{
		Books:            books.New(engine),
		Readers:          readers.New(dir),
		Auth:             auth.New(dir, signer),
		Policy:           access.DefaultPolicy(),
		Tokens:           signer,
		RDB:              rdb,
		LoginMaxAttempts: cfg.RateLimit.LoginAttempts,
		LoginWindow:      cfg.RateLimit.LoginWindow,
	}

	chain := []utils.Middleware{
		mw.RequestID,
		mw.Recovery,
		mw.ResponseTime,
		mw.Cors(cfg.CORSOrigins),
		mw.SecurityHeaders,
		mw.BodySizeLimit(cfg.MaxBodySize),
		mw.HPP(mw.DefaultHPPOptions()),
	}
	if rdb != nil {
		rl := cfg.RateLimit
		// burst control per client IP before any token work
		tb := mw.NewRedisTokenBucket(rdb, rl.BucketRate, rl.BucketBurst, mw.PerIPKey("tb"))
		chain = append(chain, tb.Middleware)
		// hourly quota per reader once the token is verified
		sw := mw.NewRedisSlidingWindow(rdb, rl.WindowLimit, rl.Window, mw.PerPrincipalKey("sw"))
		deps.AfterAuth = append(deps.AfterAuth, sw.Middleware)
	}
	chain = append(chain, mw.Compression)
	api := router.Router(deps)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           utils.ApplyMiddleware(api, chain...),
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	}()

	log.Println("Server is running on", server.Addr)
	if cfg.TLSCert != "" {
		err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalln("Error starting server:", err)
	}
	log.Println("[server] stopped")
}
