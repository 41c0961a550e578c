package bootstrap

import (
	"context"
	"log"

	"arivu-ai-be/internal/config"
	"arivu-ai-be/internal/constant"
	"arivu-ai-be/internal/controller"
	"arivu-ai-be/internal/handler"
	"arivu-ai-be/internal/pkg/logger"
	"arivu-ai-be/internal/pkg/mailer"
	"arivu-ai-be/internal/repository/memory"
	"arivu-ai-be/internal/repository/unitofwork"
	"arivu-ai-be/internal/service"
	"arivu-ai-be/internal/websocket"
	"arivu-ai-be/pkg/llm"
	"arivu-ai-be/pkg/llm/gemini"
	"arivu-ai-be/pkg/llm/keypool"

	pktNats "arivu-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController
	ChatController    controller.IChatController
	TierController    controller.ITierController
	PaymentController controller.IPaymentController

	// Background Services (Exposed for main.go to run)
	SessionEventService service.ISessionEventService

	// WebSockets
	SessionEventHandler *handler.SessionEventHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event Bus
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

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 3. LLM Gateway
	// A gateway with no credentials cannot serve a single request, so the
	// process refuses to start rather than fail on first use.
	if len(cfg.Ai.GeminiAPIKeys) == 0 {
		log.Fatal("[FATAL] No Gemini API keys configured (set GEMINI_API_KEYS)")
	}
	pool := keypool.New(cfg.Ai.GeminiAPIKeys)
	gateway := llm.NewGateway(pool, func(apiKey string) llm.LLMProvider {
		return gemini.NewGeminiProvider(apiKey, cfg.Ai.GeminiModel)
	})
	log.Printf("[INFO] LLM Gateway ready: model=%s keys=%d", cfg.Ai.GeminiModel, len(cfg.Ai.GeminiAPIKeys))

	// In-memory armed tool mode storage
	toolModes := memory.NewToolModeRepository()

	// 4. Services
	publisherService := service.NewPublisherService(constant.SessionEventsTopic, pubSub)
	sessionEventService := service.NewSessionEventService(
		pubSub,
		constant.SessionEventsTopic,
		wsHub,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	tierService := service.NewTierService(uowFactory, natsPub)
	paymentService := service.NewPaymentService(uowFactory, tierService, cfg.Payment.ProPlanPrice)
	chatService := service.NewChatService(
		uowFactory,
		gateway,
		toolModes,
		publisherService,
		natsPub,
		sysLogger,
	)

	// Bridge cross-service tier events onto the hub
	if natsSub != nil {
		if err := service.SubscribeTierEvents(natsSub, wsHub, sysLogger); err != nil {
			log.Printf("[WARN] Failed to subscribe tier events: %v", err)
		}
	}

	// Handler
	eventHandler := handler.NewSessionEventHandler(wsHub, sysLogger)

	// 5. Controllers
	return &Container{
		SessionEventHandler: eventHandler,
		WebSocketHub:        wsHub,
		AuthController:      controller.NewAuthController(authService),
		OAuthController:     controller.NewOAuthController(oauthService),
		ChatController:      controller.NewChatController(chatService),
		TierController:      controller.NewTierController(tierService),
		PaymentController:   controller.NewPaymentController(paymentService),

		SessionEventService: sessionEventService,
	}
}
