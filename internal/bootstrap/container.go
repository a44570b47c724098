package bootstrap

import (
	"context"
	"log"

	"subtrackr-be/internal/config"
	"subtrackr-be/internal/controller"
	"subtrackr-be/internal/handler"
	"subtrackr-be/internal/pkg/logger"
	"subtrackr-be/internal/pkg/mailer"
	"subtrackr-be/internal/repository/implementation"
	"subtrackr-be/internal/repository/memory"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/internal/scheduler"
	"subtrackr-be/internal/service"
	"subtrackr-be/internal/websocket"
	"subtrackr-be/pkg/cancellation"
	"subtrackr-be/pkg/detect"
	"subtrackr-be/pkg/provider"

	pktNats "subtrackr-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const scanTopic = "transaction.scan"

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	SubscriptionController controller.ISubscriptionController
	CancellationController controller.ICancellationController
	PaymentController      controller.IPaymentController

	// Background services (exposed for main.go to run)
	DetectionService service.IDetectionService
	RetryScheduler   *scheduler.RetryScheduler

	// WebSockets & Notifications
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config, registry *provider.Registry) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Cancellation pipeline
	progressCache := memory.NewProgressCache()
	progressSink := service.NewNatsProgressSink(natsPub, progressCache, sysLogger)
	orchestrator := cancellation.NewOrchestrator(
		sysLogger,
		registry,
		progressSink,
		cfg.Cancellation.BaseDelay,
		cfg.Cancellation.MaxDelay,
	)

	// 4. Services
	publisherService := service.NewPublisherService(scanTopic, pubSub)
	detectionService := service.NewDetectionService(
		pubSub,
		scanTopic,
		uowFactory,
		detect.NewDetector(0),
		natsPub,
	)

	authService := service.NewAuthService(uowFactory, natsPub)
	subscriptionService := service.NewSubscriptionService(uowFactory)
	importService := service.NewImportService(uowFactory, publisherService, sysLogger)
	cancellationService := service.NewCancellationService(
		uowFactory,
		orchestrator,
		progressSink,
		progressCache,
		emailService,
		sysLogger,
		cfg.Cancellation.MaxAttempts,
	)
	paymentService := service.NewPaymentService(uowFactory, natsPub, cfg.Midtrans)

	retryScheduler := scheduler.NewRetryScheduler(
		uowFactory,
		orchestrator,
		sysLogger,
		cfg.Cancellation.PollInterval,
		cfg.Cancellation.PollBatch,
	)

	// 5. Notification system
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}
	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	return &Container{
		AuthController:         controller.NewAuthController(authService),
		SubscriptionController: controller.NewSubscriptionController(subscriptionService, importService),
		CancellationController: controller.NewCancellationController(cancellationService),
		PaymentController:      controller.NewPaymentController(paymentService),

		DetectionService: detectionService,
		RetryScheduler:   retryScheduler,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
