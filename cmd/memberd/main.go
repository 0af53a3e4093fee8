package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	fsphotostore "github.com/ifiscoder/CommunityApp/internal/adapters/fs/photostore"
	fstokencache "github.com/ifiscoder/CommunityApp/internal/adapters/fs/tokencache"
	"github.com/ifiscoder/CommunityApp/internal/adapters/httpapi"
	httpfuncdeletion "github.com/ifiscoder/CommunityApp/internal/adapters/httpfunc/deletion"
	memaccountstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/accountstore"
	memdeletion "github.com/ifiscoder/CommunityApp/internal/adapters/memory/deletion"
	memfeed "github.com/ifiscoder/CommunityApp/internal/adapters/memory/feed"
	memidempotency "github.com/ifiscoder/CommunityApp/internal/adapters/memory/idempotency"
	memprofilestore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/profilestore"
	memsessionstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/sessionstore"
	postgres "github.com/ifiscoder/CommunityApp/internal/adapters/postgres"
	pgaccountstore "github.com/ifiscoder/CommunityApp/internal/adapters/postgres/accountstore"
	pgdeletion "github.com/ifiscoder/CommunityApp/internal/adapters/postgres/deletion"
	pgidempotency "github.com/ifiscoder/CommunityApp/internal/adapters/postgres/idempotency"
	"github.com/ifiscoder/CommunityApp/internal/adapters/postgres/migrations"
	pgprofilestore "github.com/ifiscoder/CommunityApp/internal/adapters/postgres/profilestore"
	redisfeed "github.com/ifiscoder/CommunityApp/internal/adapters/redis/feed"
	redissessionstore "github.com/ifiscoder/CommunityApp/internal/adapters/redis/sessionstore"
	"github.com/ifiscoder/CommunityApp/internal/app/adminflow"
	"github.com/ifiscoder/CommunityApp/internal/app/authctl"
	"github.com/ifiscoder/CommunityApp/internal/app/photos"
	platformclock "github.com/ifiscoder/CommunityApp/internal/platform/clock"
	"github.com/ifiscoder/CommunityApp/internal/platform/config"
	"github.com/ifiscoder/CommunityApp/internal/platform/servicetoken"
	accountstoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/accountstore"
	deletionport "github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
	feedport "github.com/ifiscoder/CommunityApp/internal/ports/out/feed"
	idempotencyport "github.com/ifiscoder/CommunityApp/internal/ports/out/idempotency"
	profilestoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
	sessionstoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := platformclock.NewSystemClock()
	logger := log.Default()

	// Sessions and the change feed move to Redis when an address is set, so
	// sign-ins survive restarts and instances invalidate together.
	var (
		sessions sessionstoreport.Store
		changes  feedport.Feed
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis unreachable: %v", err)
		}
		defer rdb.Close()
		sessions = redissessionstore.NewStore(rdb)
		changes = redisfeed.NewFeed(rdb)
	} else {
		sessions = memsessionstore.NewStore(clk)
		changes = memfeed.NewFeed()
	}

	var (
		accounts accountstoreport.Store
		profiles profilestoreport.Store
		idem     idempotencyport.Store
		deleter  deletionport.Deleter
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		defer pool.Close()
		if err := migrations.Apply(ctx, pool); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}

		pgAccounts := pgaccountstore.NewStore(pool, sessions, cfg.SessionTTL)
		pgProfiles := pgprofilestore.NewStore(pool, clk)
		accounts = pgAccounts
		profiles = pgProfiles
		idem = pgidempotency.NewStore(pool)
		deleter = pgdeletion.NewDeleter(pgAccounts, pgProfiles)
	default:
		memAccounts := memaccountstore.NewStore(sessions, cfg.SessionTTL)
		memProfiles := memprofilestore.NewStore(clk)
		accounts = memAccounts
		profiles = memProfiles
		idem = memidempotency.NewStore()
		deleter = memdeletion.NewDeleter(memAccounts, memProfiles)
	}

	// A configured function URL overrides the in-process cascade.
	if cfg.DeleteFnURL != "" {
		minter := servicetoken.NewMinter(servicetoken.Config{
			Secret: cfg.ServiceTokenSecret,
			Issuer: cfg.ServiceTokenIssuer,
		})
		deleter = httpfuncdeletion.NewDeleter(cfg.DeleteFnURL, cfg.ServiceTokenIssuer, minter, nil)
	}

	tokens := fstokencache.NewCache(cfg.TokenCachePath)
	photoStore := fsphotostore.NewStore(cfg.PhotoDir, cfg.PhotoBaseURL)

	ctl := authctl.NewController(accounts, profiles, tokens, changes, clk, logger)
	ctl.Resume(ctx)

	actions := adminflow.NewActions(profiles, deleter, changes, logger)
	directory := adminflow.NewDirectory(profiles, logger)
	if err := directory.Watch(ctx, changes); err != nil {
		log.Fatalf("watch change feed: %v", err)
	}

	photoSvc := photos.NewService(photoStore, ctl, photos.Config{
		MaxBytes:     cfg.PhotoMaxBytes,
		AllowedTypes: cfg.PhotoAllowedTypes,
	}, logger)

	api := httpapi.NewServer(ctl, actions, directory, photoSvc, profiles, idem, logger)
	handler := httpapi.NewRouter(api)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("memberd listening on %s (storage=%s)", cfg.HTTPAddr, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
