package bootstrap

import (
	"context"
	"fmt"

	"ai-docview/internal/config"
	"ai-docview/internal/controller"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/pkg/serverutils"
	"ai-docview/internal/poller"
	"ai-docview/internal/repository/contract"
	"ai-docview/internal/repository/implementation"
	"ai-docview/internal/repository/memory"
	"ai-docview/internal/service"
	"ai-docview/internal/session"
	"ai-docview/pkg/docapi"
	pktNats "ai-docview/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Container holds everything the docview CLI wires together.
type Container struct {
	Config *config.Config
	Logger logger.ILogger
	Clock  clock.Clock

	Sessions  *session.Context
	API       *docapi.Client
	Identity  service.IIdentityService
	OAuth     service.IOAuthService
	Documents service.IDocumentService

	OAuthController controller.IOAuthController

	// Poll event bus
	PubSub           *gochannel.GoChannel
	PublisherService service.IPublisherService
	ConsumerService  service.IConsumerService

	// NatsPublisher is nil unless NATS_URL is set.
	NatsPublisher *pktNats.Publisher

	closers []func()
}

func NewContainer(cfg *config.Config, log logger.ILogger) (*Container, error) {
	clk := clock.Real()

	// 1. Session store
	sessionRepo, closeRepo, err := newSessionRepository(cfg.Session, log)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: log, Clock: clk}
	if closeRepo != nil {
		c.closers = append(c.closers, closeRepo)
	}

	c.Sessions = session.NewContext(sessionRepo, clk, log)
	if err := c.Sessions.Load(context.Background()); err != nil {
		log.Warn("Bootstrap", "Failed to load stored session", map[string]interface{}{"error": err.Error()})
	}

	// 2. Remote contract
	c.API = docapi.NewClient(cfg.Api.BaseURL, cfg.Api.Timeout)
	c.Identity = service.NewIdentityService(c.API, c.Sessions, log)
	c.OAuth = service.NewOAuthService(cfg.Google, c.Identity, c.Sessions, log)
	c.OAuthController = controller.NewOAuthController(c.OAuth, log)
	c.Documents = service.NewDocumentService(c.API, c.Sessions, log)

	// 3. Event bus
	mirror := c.connectNats(cfg.Events.NatsURL)
	c.PubSub = gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64, BlockPublishUntilSubscriberAck: true},
		watermill.NopLogger{},
	)
	c.closers = append(c.closers, func() { _ = c.PubSub.Close() })
	c.PublisherService = service.NewPublisherService(service.PollEventsTopic, c.PubSub, mirror, log)
	c.ConsumerService = service.NewConsumerService(c.PubSub, service.PollEventsTopic, log)

	return c, nil
}

// NewDocumentView builds a poll loop whose notifications go to the event
// bus, and the view controller driving it.
func (c *Container) NewDocumentView(
	ctx context.Context,
	confirmer controller.Confirmer,
	navigator controller.Navigator,
	alerter controller.Alerter,
) (controller.IDocumentController, *poller.Loop) {
	observer := service.NewPollEventObserver(ctx, c.PublisherService, c.Clock.Now, c.Logger)
	loop := poller.NewLoop(ctx, c.Documents, c.Clock, c.Logger, observer)
	view := controller.NewDocumentController(c.Documents, loop, c.Sessions, confirmer, navigator, alerter, c.Logger)
	return view, loop
}

// CallbackApp serves the local OAuth redirect target.
func (c *Container) CallbackApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(serverutils.ErrorHandlerMiddleware(c.Logger))
	c.OAuthController.RegisterRoutes(app)
	return app
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func (c *Container) connectNats(url string) service.EventMirror {
	if url == "" {
		return nil
	}
	pub, err := pktNats.NewPublisher(url)
	if err != nil {
		c.Logger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		return nil
	}
	c.NatsPublisher = pub
	c.closers = append(c.closers, pub.Close)
	return pub
}

func newSessionRepository(cfg config.SessionConfig, log logger.ILogger) (contract.SessionRepository, func(), error) {
	switch cfg.Store {
	case "memory":
		return memory.NewSessionRepository(), nil, nil
	case "redis":
		rdb := newRedisClient(cfg.RedisURL, log)
		return implementation.NewRedisSessionRepository(rdb, ""), func() { _ = rdb.Close() }, nil
	case "file", "":
		return implementation.NewFileSessionRepository(cfg.FilePath), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	return rdb
}
