package main

import (
	"context"
	"log"
	"os"

	"github.com/example/shop-monolith/config"
	"github.com/example/shop-monolith/modules/api"
	"github.com/example/shop-monolith/modules/auth"
	"github.com/example/shop-monolith/modules/cart"
	"github.com/example/shop-monolith/modules/catalog"
	"github.com/example/shop-monolith/modules/mailer"
	"github.com/example/shop-monolith/modules/queue"
	"github.com/example/shop-monolith/modules/store"
	"github.com/example/shop-monolith/modules/worker"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Shop Monolith ===")

	cfg := config.Load()

	// Create mono application with embedded NATS JetStream
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(cfg.NATS.JetStreamDir),
		mono.WithNATSPort(cfg.NATS.Port),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	db, err := store.Open(store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	transport, err := mailer.New(mailer.Config{
		Transport:     cfg.Mail.Transport,
		From:          cfg.Mail.From,
		SMTPHost:      cfg.Mail.SMTPHost,
		SMTPPort:      cfg.Mail.SMTPPort,
		SMTPUsername:  cfg.Mail.SMTPUsername,
		SMTPPassword:  cfg.Mail.SMTPPassword,
		PostmarkToken: cfg.Mail.PostmarkToken,
	}, logger.WithModule("mailer"))
	if err != nil {
		log.Fatalf("Failed to configure mail transport: %v", err)
	}

	queueConfig := queue.DefaultConfig()
	queueConfig.URL = cfg.NATS.URL
	queueConfig.MaxAttempts = cfg.Worker.MaxAttempts
	queueConfig.MaxInFlight = cfg.Worker.Concurrency
	queueConfig.AckWait = queue.AckWaitFor(cfg.Worker.JobTimeout)
	queueModule := queue.NewModule(queueConfig, logger.WithModule("queue"))
	jobs := queueModule.Client()

	modules := []mono.Module{
		store.NewModule(db, cfg.Database.Driver, logger.WithModule("store")),
		queueModule,
		auth.NewModule(db, auth.JWTConfig{
			SecretKey: cfg.JWT.SecretKey,
			TTL:       cfg.JWT.TTL,
			Issuer:    cfg.JWT.Issuer,
		}, logger.WithModule("auth")),
		catalog.NewModule(db, catalog.CacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "shop:products:",
			TTL:      cfg.Redis.CacheTTL,
		}, logger.WithModule("catalog")),
		cart.NewModule(db, jobs, logger.WithModule("cart")),
		worker.NewModule(worker.PoolConfig{
			NumWorkers:     cfg.Worker.Concurrency,
			MaxAttempts:    cfg.Worker.MaxAttempts,
			BaseRetryDelay: cfg.Worker.BaseDelay,
			MaxRetryDelay:  cfg.Worker.MaxDelay,
			ProcessTimeout: cfg.Worker.JobTimeout,
		}, jobs, jobs, worker.NewProcessor(transport), logger.WithModule("worker")),
	}
	modules = append(modules, api.NewModule(api.Config{
		Port:           cfg.Port,
		RequestTimeout: cfg.StoreTimeout,
		RedisAddr:      cfg.Redis.Addr,
		RedisPassword:  cfg.Redis.Password,
		RedisDB:        cfg.Redis.DB,
		AuthPerMinute:  cfg.Limits.AuthPerMinute,
	}, healthOf(modules), logger.WithModule("api")))

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	for _, m := range modules {
		app.Register(m)
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// healthOf reports the health of every module that supports it.
func healthOf(modules []mono.Module) api.HealthFunc {
	return func(ctx context.Context) map[string]mono.HealthStatus {
		statuses := make(map[string]mono.HealthStatus, len(modules))
		for _, m := range modules {
			if hc, ok := m.(mono.HealthCheckableModule); ok {
				statuses[m.Name()] = hc.Health(ctx)
			}
		}
		return statuses
	}
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("Database: %s", cfg.Database.Driver)
	log.Printf("Mail transport: %s", cfg.Mail.Transport)
	log.Printf("Workers: %d (max %d attempts)", cfg.Worker.Concurrency, cfg.Worker.MaxAttempts)
	if !cfg.Redis.Enabled() {
		log.Println("Redis: disabled (no product cache, no rate limiting)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.Port)
	log.Println("  POST   /user/register        - Register a customer")
	log.Println("  POST   /user/register-admin  - Register an admin")
	log.Println("  POST   /user/login           - Login and get a token")
	log.Println("  POST   /user/logout          - Revoke the current token")
	log.Println("  GET    /user                 - Current user profile")
	log.Println("  GET    /products             - Published products")
	log.Println("  GET    /product/:id          - Product details")
	log.Println("  POST   /product/create       - Create a product (admin)")
	log.Println("  PUT    /product/:id          - Change product status (admin)")
	log.Println("  DELETE /product/:id          - Delete a product (admin)")
	log.Println("  POST   /cart                 - Add an item to the cart")
	log.Println("  GET    /cart                 - Current cart")
	log.Println("  POST   /cart/checkout        - Place the order")
	log.Println("  GET    /health               - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
