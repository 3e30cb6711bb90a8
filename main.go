package main

import (
	"advisory/config"
	actionController "advisory/controllers/action"
	adminController "advisory/controllers/admin"
	authController "advisory/controllers/auth"
	healthController "advisory/controllers/health"
	paymentController "advisory/controllers/payment"
	"advisory/database"
	"advisory/events"
	"advisory/middleware"
	"advisory/notifier"
	actionRoutes "advisory/routers/actionRoutes"
	adminRoutes "advisory/routers/adminRoutes"
	authRoutes "advisory/routers/authRoutes"
	paymentRoutes "advisory/routers/paymentRoutes"
	"advisory/services"
	"advisory/store"
	"advisory/utils"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// application holds the collaborators the HTTP layer is built from.
type application struct {
	cfg      *config.Config
	db       *gorm.DB
	store    *store.Store
	notifier *notifier.Notifier
	limiter  utils.Limiter
	gateway  utils.PaymentGateway
	events   events.Publisher
}

func newApp(a *application) *fiber.App {
	cfg := a.cfg

	otps := services.NewOTPService(a.store, a.limiter, cfg.OTPTTL, cfg.OTPCooldown)
	registration := services.NewRegistrationService(a.store, otps, a.notifier, a.events, cfg.SaltRound)
	verification := services.NewVerificationService(a.store, otps, a.notifier, a.events, cfg.SaltRound, cfg.VerifyEmailMarksPhone)
	subscriptions := services.NewSubscriptionService(a.store, a.gateway, a.notifier, a.events)
	auth := services.NewAuthService(a.store, middleware.GenerateJWT)

	authHandler := authController.NewHandler(registration, verification, auth)
	paymentHandler := paymentController.NewHandler(subscriptions, cfg.RazorpayKeyID)

	app := fiber.New(fiber.Config{AppName: "advisory"})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Origins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Get("/health", healthController.Health(a.db))
	authRoutes.SetupAuthRoutes(app, authHandler)
	paymentRoutes.SetupPaymentRoutes(app, paymentHandler)
	adminRoutes.SetupAdminRoutes(app, adminController.NewHandler(a.store))
	actionRoutes.SetupActionRoutes(app, actionController.NewDispatcher(authHandler, paymentHandler))

	return app
}

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	db := database.ConnectDb(cfg)
	st := store.New(db)

	var limiter utils.Limiter = utils.NewMemoryLimiter(nil)
	rdb := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTLS)
	if rdb != nil {
		limiter = utils.NewRedisLimiter(rdb, "advisory:otp")
		defer rdb.Close()
	}

	var gateway utils.PaymentGateway = utils.OfflineGateway{}
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateway = utils.NewRazorpayGateway(cfg.RazorpayApiURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		log.Println("Warning: RAZORPAY keys not set. Payments are confirmed without signature checks.")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQPURL)
	}
	defer publisher.Close()

	n := notifier.NewFromConfig(cfg)

	scheduler := utils.NewSubscriptionScheduler(st, n, cfg.SchedulerSpec)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	app := newApp(&application{
		cfg:      cfg,
		db:       db,
		store:    st,
		notifier: n,
		limiter:  limiter,
		gateway:  gateway,
		events:   publisher,
	})

	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
