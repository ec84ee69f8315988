package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	clientsRepo "github.com/blogsmith/blogsmith/clients/repository"
	contentRepo "github.com/blogsmith/blogsmith/content/repository"
	coreconfig "github.com/blogsmith/blogsmith/core/config"
	coreDB "github.com/blogsmith/blogsmith/core/database"
	"github.com/blogsmith/blogsmith/infrastructure/lock"
	"github.com/blogsmith/blogsmith/infrastructure/valkey"
	"github.com/blogsmith/blogsmith/integrations/mailer"
	"github.com/blogsmith/blogsmith/integrations/openai"
	"github.com/blogsmith/blogsmith/integrations/wordpress"
	jobsApp "github.com/blogsmith/blogsmith/jobs/application"
	jobsRepo "github.com/blogsmith/blogsmith/jobs/repository"
	schedApp "github.com/blogsmith/blogsmith/scheduler/application"
	schedDomain "github.com/blogsmith/blogsmith/scheduler/domain"
	uiRest "github.com/blogsmith/blogsmith/ui/rest"
	"github.com/blogsmith/blogsmith/ui/rest/middleware"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Run the API server with the publishing scheduler",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DATABASE] %v", err)
	}

	clients := clientsRepo.NewClientGormRepository(db)
	posts := contentRepo.NewPostGormRepository(db)
	keywords := contentRepo.NewKeywordGormRepository(db)
	jobs := jobsRepo.NewJobGormRepository(db)

	ctx := context.Background()
	for name, migrate := range map[string]func(context.Context) error{
		"clients": clients.InitSchema,
		"posts":   posts.InitSchema,
		"keyword": keywords.InitSchema,
		"jobs":    jobs.InitSchema,
	} {
		if err := migrate(ctx); err != nil {
			logrus.Fatalf("[DATABASE] Migrating %s schema: %v", name, err)
		}
	}

	// Fleet-wide window locks need Valkey. Without it, locking is
	// process-local and only safe for single-instance deployments.
	var locks schedDomain.ILockProvider
	var valkeyClient *valkey.Client
	if cfg.Database.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Fatalf("[VALKEY] %v", err)
		}
		defer valkeyClient.Close()
		locks = lock.NewValkeyLockProvider(valkeyClient)
		logrus.Infof("[VALKEY] Distributed locking enabled at %s", cfg.Database.ValkeyAddress)
	} else {
		locks = lock.NewMemoryLockProvider()
		logrus.Warnln("[VALKEY] Disabled, using in-process locks; run a single instance only")
	}

	generator, err := openai.NewGenerator(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, openai.NewStaticTemplateResolver())
	if err != nil {
		logrus.Fatalf("[OPENAI] %v", err)
	}

	publisherFor := func(target clientsDomain.PublishingTarget) schedDomain.IPublisher {
		return wordpress.NewClient(target)
	}

	processor := schedApp.NewSlotProcessor(
		posts,
		keywords,
		generator,
		publisherFor,
		mailer.NewMailer(cfg.Mail),
		schedApp.ProcessorConfig{
			DefaultKeywords:    cfg.Scheduler.DefaultKeywords,
			HistorySize:        cfg.Scheduler.HistorySize,
			MaxPublishAttempts: cfg.Scheduler.MaxPublishAttempts,
		},
	)

	orchestrator := schedApp.NewRunOrchestrator(locks, clients, processor, schedApp.OrchestratorConfig{
		LockTTL:        cfg.Scheduler.LockTTL,
		InterSlotDelay: cfg.Scheduler.InterSlotDelay,
	})

	scheduler := schedApp.NewScheduler(orchestrator, cfg.Scheduler.RunInterval)
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(ctx); err != nil {
			logrus.Fatalf("[SCHEDULER] %v", err)
		}
	} else {
		logrus.Warnln("[SCHEDULER] Disabled by configuration, only on-demand jobs will run")
	}

	handlers := jobsApp.NewHandlers(clients, posts, processor)
	worker := jobsApp.NewWorker(jobs, handlers, jobsApp.WorkerConfig{
		QueueSize:   cfg.Jobs.QueueSize,
		MaxAttempts: cfg.Jobs.MaxAttempts,
		RetryDelay:  cfg.Jobs.RetryDelay,
	})
	worker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "Blogsmith Engine",
		Network:      "tcp",
		ServerHeader: "Hidden",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	uiRest.InitRestHealth(app)

	api := app.Group("")
	if len(cfg.App.BasicAuth) > 0 {
		account := make(map[string]string)
		for _, pair := range cfg.App.BasicAuth {
			parts := strings.Split(pair, ":")
			if len(parts) != 2 {
				logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
			}
			account[parts[0]] = parts[1]
		}
		api = app.Group("", basicauth.New(basicauth.Config{Users: account}))
	} else {
		logrus.Warnln("[REST] APP_BASIC_AUTH not set, API endpoints are unauthenticated")
	}

	uiRest.InitRestScheduler(api, scheduler)
	uiRest.InitRestJobs(api, worker, jobs)

	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			logrus.Fatalf("[REST] %v", err)
		}
	}()
	logrus.Infof("[REST] Listening on port %s", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Infoln("[APP] Shutting down")
	scheduler.Shutdown()
	worker.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Errorln("[REST] Shutdown failed")
	}
	logrus.Infoln("[APP] Bye")
}
