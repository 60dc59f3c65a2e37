package bootstrap

import (
	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/controller"
	"ai-chatbot-be/internal/pkg/jwtauth"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/redisstore"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/conversation"
	"ai-chatbot-be/pkg/llm/factory"
	pktNats "ai-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	ChatController         controller.IChatController
	ConversationController controller.IConversationController

	JwtMiddleware fiber.Handler
	Logger        logger.ILogger
	ProviderName  string

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func() error
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	var closers []func() error

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	closers = append(closers, pubSub.Close)

	// 3. Infrastructure
	// LLM provider; a bad setting keeps the server up and fails each turn with a configuration error
	llmProvider, err := factory.NewProvider(cfg, sysLogger)
	if err != nil {
		sysLogger.Error("BOOTSTRAP", "Failed to initialize LLM provider", map[string]interface{}{
			"provider": cfg.Ai.Provider,
			"error":    err.Error(),
		})
		llmProvider = factory.Failing(err)
	} else {
		sysLogger.Info("BOOTSTRAP", "Using LLM provider", map[string]interface{}{
			"provider": llmProvider.Name(),
			"model":    cfg.Ai.Model,
		})
	}

	// Token denylist: Redis when configured, in-memory otherwise
	var denylist jwtauth.Denylist
	if cfg.App.RedisURL != "" {
		rdb := redisstore.NewClient(cfg.App.RedisURL)
		closers = append(closers, rdb.Close)
		denylist = redisstore.NewTokenDenylist(rdb)
		sysLogger.Info("BOOTSTRAP", "Using Redis token denylist", nil)
	} else {
		denylist = memory.NewTokenDenylist()
	}
	jwtManager := jwtauth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, denylist)

	// NATS forwarding of turn events is optional
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			forwarder = natsPub
			closers = append(closers, func() error {
				natsPub.Close()
				return nil
			})
		}
	}

	// 4. Services
	store := conversation.NewStore(uowFactory)
	publisherService := service.NewPublisherService(service.TurnEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		service.TurnEventsTopic,
		auditLogger,
		sysLogger,
		forwarder,
	)

	chatService := service.NewChatService(store, llmProvider, publisherService, sysLogger)
	conversationService := service.NewConversationService(store)
	authService := service.NewAuthService(uowFactory, jwtManager, jwtManager, sysLogger)

	// 5. Controllers
	return &Container{
		AuthController:         controller.NewAuthController(authService),
		ChatController:         controller.NewChatController(chatService),
		ConversationController: controller.NewConversationController(conversationService),

		JwtMiddleware: serverutils.JwtMiddleware(jwtManager),
		Logger:        sysLogger,
		ProviderName:  llmProvider.Name(),

		ConsumerService: consumerService,

		closers: closers,
	}
}

// Close releases the event bus and external connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Failed to close resource", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	_ = c.Logger.Sync()
}
