package protocal

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cassiel99/gptbot/configs"
	httpAdapter "github.com/cassiel99/gptbot/internal/adapters/input/http"
	telegramInput "github.com/cassiel99/gptbot/internal/adapters/input/telegram"
	"github.com/cassiel99/gptbot/internal/adapters/output/lmstudio"
	"github.com/cassiel99/gptbot/internal/application"
	"github.com/cassiel99/gptbot/internal/telemetry"

	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

// Telegram update delivery modes
const (
	TelegramModePolling = "polling"
	TelegramModeWebhook = "webhook"
)

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	if err := configs.InitViper("./configs", cfg.ENV); err != nil {
		return err
	}
	conf := configs.GetViper()

	logCloser, err := telemetry.InitLogger(conf.Log, conf.App.Debug)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	logrus.Infof("Environment: %s", conf.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, conf.Telemetry)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	// Wire up the hexagonal architecture layers
	// Output adapters
	repo, err := newStateRepository(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logrus.Errorf("Error when closing state storage: %v", err)
		}
	}()

	inference, err := lmstudio.NewLMStudioClientAdapter(conf.LMStudio)
	if err != nil {
		return err
	}
	defer inference.Close()

	platforms, err := newPlatformClients(conf)
	if err != nil {
		return err
	}

	// Application services (use cases)
	sessions := newSessionManager(conf)
	chatSrv, err := application.NewChatService(sessions, repo, inference, newNormalizer(conf.Normalizer), conf.App.DonateText, platforms...)
	if err != nil {
		return err
	}
	querySrv := application.NewStateQueryService(sessions, repo)

	// Input adapters
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))

	hdl := httpAdapter.New(querySrv, repo)
	app.Get("/swagger/*", swagger.HandlerDefault) // default
	app.Get("/health", hdl.HealthCheck)

	api := app.Group("/v1/api")
	{
		api.Get("/users/:platform/:user_id/sessions", hdl.GetUserSessions)
	}

	var poller *telegramInput.Poller
	webhook := app.Group("/webhook")
	{
		if conf.Line.Enabled {
			webhook.Post("/line", httpAdapter.NewLineWebhookHandler(chatSrv, conf.Line.ChannelSecret).HandleWebhook)
		}
		if conf.Telegram.Enabled && conf.Telegram.Mode == TelegramModeWebhook {
			webhook.Post("/telegram", httpAdapter.NewTelegramWebhookHandler(chatSrv, conf.Telegram.WebhookSecret).HandleWebhook)
		}
	}
	if conf.Telegram.Enabled && conf.Telegram.Mode != TelegramModeWebhook {
		poller, err = telegramInput.NewPoller(conf.Telegram, chatSrv)
		if err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	if poller != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	go func() {
		<-ctx.Done()
		logrus.Info("Gracefull shut down ...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("Error when shutdown server: %v", err)
		}
	}()

	logrus.Infof("Listening on port: %s", conf.App.Port)
	err = app.Listen(":" + conf.App.Port)
	stop()
	wg.Wait()
	return err
}
