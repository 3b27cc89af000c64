package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lyrebird-dev/lyrebird/src"
	"github.com/lyrebird-dev/lyrebird/src/gateway"
	message "github.com/lyrebird-dev/lyrebird/src/messages"
	"github.com/lyrebird-dev/lyrebird/src/rest"
	"github.com/lyrebird-dev/lyrebird/src/server"
	"github.com/lyrebird-dev/lyrebird/src/state"
	"github.com/lyrebird-dev/lyrebird/src/structs"
	"github.com/lyrebird-dev/lyrebird/src/utils"
)

var signals = []os.Signal{
	os.Interrupt,
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	err := godotenv.Load()
	if err != nil {
		panic("failed to load config file")
	}
	cfg := utils.LoadConfiguration()

	logger := slog.New(src.NewCustomHandler(os.Stdout, src.CustomHandlerOpts{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	restClient := rest.NewREST(cfg.DiscordHTTPBaseURL, cfg.DiscordBotToken)
	messageAPI, err := message.New(restClient, logger)
	if err != nil {
		logger.Error("message api init failed", "error", err.Error())
		os.Exit(1)
	}

	g := gateway.NewGateway(gateway.Arguments{
		BotToken: cfg.DiscordBotToken,
		BotIntent: []int{
			gateway.GuildsIntent,
			gateway.GuildMembersIntent,
			gateway.GuildVoiceStatesIntent,
			gateway.GuildMessagesIntent,
			gateway.GuildMessageReactionIntent,
			gateway.DirectMessageIntent,
			gateway.MessageContentIntent,
		},
		Logger: logger,
		Handlers: state.Handlers{
			Ready: func() {
				logger.Info("connection synced")
			},
			GuildAvailable: func(gld *structs.Guild) {
				logger.Info("guild available", "guild_id", gld.ID.String(), "name", gld.Name)
			},
			Message: func(m *structs.Message) {
				if m.Content != "ping" {
					return
				}
				reply, err := messageAPI.CreateMessage(ctx, m.ChannelID, message.CreateMessageData{
					Content: "pong",
				})
				if err != nil {
					logger.Warn("reply failed", "error", err.Error())
					return
				}
				messageAPI.DeleteMessageAfter(ctx, reply.ChannelID, reply.ID, 30*time.Second)
			},
			Error: func(event structs.EventName, err error) {
				logger.Error("ingestion anomaly", "event_name", event, "error", err.Error())
			},
		},
	})

	apiServer := server.NewServer(server.Arguments{
		Gateway:   g,
		AuthToken: cfg.APIAuthToken,
		Logger:    logger,
	})
	go apiServer.StartServer(ctx, cfg.APIAddress)

	if err := g.Open(ctx); err != nil {
		logger.Error("gateway open failed", "error", err.Error())
		stop()
	}
	<-ctx.Done()
	g.Close()
}
