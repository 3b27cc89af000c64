package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/lyrebird-dev/lyrebird/src/gateway"
	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// Server exposes the cached object graph over HTTP for inspection. It is
// read-only: every endpoint goes through the state accessors, never the
// ingestion path.
type Server struct {
	router    *fiber.App
	gw        *gateway.Gateway
	authToken string
	log       *slog.Logger
}

type Arguments struct {
	Gateway   *gateway.Gateway
	AuthToken string
	Logger    *slog.Logger
}

func NewServer(args Arguments) *Server {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}
	return &Server{
		router:    fiber.New(),
		gw:        args.Gateway,
		authToken: args.AuthToken,
		log:       args.Logger,
	}
}

func (server *Server) setupRouter() {
	router := fiber.New()
	router.Get("/healthz", server.handleHealth)
	api := router.Group("/", server.AuthMiddleware)
	api.Get("/guilds", server.handleGuilds)
	api.Get("/guilds/:id", server.handleGuild)
	api.Get("/guilds/:id/permissions", server.handlePermissions)
	server.router = router
}

func (server *Server) StartServer(ctx context.Context, addr string) {
	server.log.Info("status server start", "addr", addr)
	server.setupRouter()
	server.router.Listen(addr, fiber.ListenConfig{
		GracefulContext: ctx,
		OnShutdownSuccess: func() {
			server.log.Info("status server stopped")
		},
	})
}

func (server *Server) handleHealth(c fiber.Ctx) error {
	st := server.gw.State()
	return c.JSON(fiber.Map{
		"status":   server.gw.Status(),
		"guilds":   len(st.Guilds()),
		"messages": st.MessageCount(),
	})
}

type guildSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	Unavailable bool   `json:"unavailable"`
}

func (server *Server) handleGuilds(c fiber.Ctx) error {
	guilds := server.gw.State().Guilds()
	out := make([]guildSummary, 0, len(guilds))
	for _, g := range guilds {
		out = append(out, guildSummary{
			ID:          g.ID.String(),
			Name:        g.Name,
			MemberCount: g.MemberCount,
			Unavailable: g.Unavailable,
		})
	}
	return c.JSON(out)
}

type roleView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type channelView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

func (server *Server) handleGuild(c fiber.Ctx) error {
	id, err := parseSnowflake(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "bad guild id"})
	}
	g := server.gw.State().Guild(id)
	if g == nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "unknown guild"})
	}
	roles := g.RoleHierarchy()
	roleViews := make([]roleView, 0, len(roles))
	for _, r := range roles {
		roleViews = append(roleViews, roleView{ID: r.ID.String(), Name: r.Name, Position: r.Position})
	}
	channels := append(g.TextChannels(), g.VoiceChannels()...)
	channelViews := make([]channelView, 0, len(channels))
	for _, ch := range channels {
		channelViews = append(channelViews, channelView{ID: ch.ID.String(), Name: ch.Name, Type: int(ch.Type)})
	}
	return c.JSON(fiber.Map{
		"id":           g.ID.String(),
		"name":         g.Name,
		"owner_id":     g.OwnerID.String(),
		"member_count": g.MemberCount,
		"unavailable":  g.Unavailable,
		"roles":        roleViews,
		"channels":     channelViews,
	})
}

func (server *Server) handlePermissions(c fiber.Ctx) error {
	guildID, err := parseSnowflake(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "bad guild id"})
	}
	memberID, err := parseSnowflake(c.Query("member"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "bad member id"})
	}
	channelID, err := parseSnowflake(c.Query("channel"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "bad channel id"})
	}
	perms, err := server.gw.State().PermissionsFor(guildID, memberID, channelID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"permissions":     strconv.FormatUint(uint64(perms), 10),
		"read_messages":   perms.Has(structs.PermissionReadMessages),
		"send_messages":   perms.Has(structs.PermissionSendMessages),
		"manage_messages": perms.Has(structs.PermissionManageMessages),
		"manage_roles":    perms.Has(structs.PermissionManageRoles),
	})
}

func parseSnowflake(raw string) (structs.Snowflake, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return structs.Snowflake(n), nil
}
