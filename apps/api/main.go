package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4/middleware"

	echoapi "github.com/erise-club/website/apps/api/echo"
	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/achievement"
	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/core/chat"
	"github.com/erise-club/website/core/event"
	"github.com/erise-club/website/core/member"
	"github.com/erise-club/website/services/chat/gemini"
	logsvc "github.com/erise-club/website/services/logger"
	"github.com/erise-club/website/services/ratelimit"
	"github.com/erise-club/website/storage/database"
	sqlxrepos "github.com/erise-club/website/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	adminSvc := admin.NewService(sqlxrepos.NewAdminRepository(db), conf.Server.SessionTTL)
	eventSvc := event.NewService(sqlxrepos.NewResourceRepository[event.Event](db, event.Schema))
	memberSvc := member.NewService(sqlxrepos.NewResourceRepository[member.Member](db, member.Schema))
	achievementSvc := achievement.NewService(sqlxrepos.NewResourceRepository[achievement.Achievement](db, achievement.Schema))

	assistant, err := gemini.NewAssistant(context.Background(), conf.Chat)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up chat assistant: %v", err), err)
	}
	if conf.Chat.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set: the chat will only answer with its fallback reply")
	}
	chatSvc := chat.NewService(assistant, conf.Chat.Timeout, logger)

	var limiterStore middleware.RateLimiterStore
	if conf.Redis.URL != "" {
		store, err := ratelimit.NewRedisStore(context.Background(), conf.Redis.URL, "erise:chat", conf.Chat.RateLimit, time.Minute)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up rate limiter: %v", err), err)
		}
		defer store.Close()
		limiterStore = store
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)

	bootstrapAdmin(conf, adminSvc, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:             conf,
			Logger:           logger,
			DB:               db,
			AdminSvc:         adminSvc,
			EventSvc:         eventSvc,
			MemberSvc:        memberSvc,
			AchievementSvc:   achievementSvc,
			ChatSvc:          chatSvc,
			ChatLimiterStore: limiterStore,
			Validate:         validate,
			Translator:       translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf.Database)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// bootstrapAdmin creates the configured admin account on first start.
func bootstrapAdmin(conf *core.Config, svc *admin.Service, logger core.Logger) {
	ctx := context.Background()
	uname, pwd := conf.Admin.Username, conf.Admin.Password

	created, err := svc.Bootstrap(ctx, uname, pwd)
	if err != nil {
		logger.Fatal(fmt.Sprintf("bootstrapping admin %q: %v", uname, err), err)
	}
	if created {
		logger.Info(fmt.Sprintf("admin %q created", uname))
		if admin.PasswordIsWeak(pwd, uname) {
			logger.Warn(fmt.Sprintf("the password of admin %q is weak: change it with `admin resetpassword -username %s`", uname, uname))
		}
	}

	count, err := svc.Count(ctx)
	if err != nil {
		logger.Fatal(fmt.Sprintf("counting admins: %v", err), err)
	}
	if count == 0 {
		logger.Warn("no admin account: create one with `admin adduser -username <name>` or set <ENV>_ADMIN_PASSWORD")
	}
}
