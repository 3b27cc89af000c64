package guild

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lyrebird-dev/lyrebird/src/rest"
	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// Guilds API.
// Moderation and membership commands against guild resources.
// Source: https://discord.com/developers/docs/resources/guild
type GuildAPI struct {
	rest rest.RESTClient
}

func New(restClient rest.RESTClient) *GuildAPI {
	return &GuildAPI{rest: restClient}
}

func (g *GuildAPI) route(segments string) (string, error) {
	u, err := url.Parse(g.rest.URL())
	if err != nil {
		return "", err
	}
	actualPath, err := url.JoinPath(u.Path, segments)
	if err != nil {
		return "", err
	}
	full := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   actualPath,
	}
	return full.String(), nil
}

func (g *GuildAPI) Kick(ctx context.Context, guildID, userID structs.Snowflake) error {
	kURL, err := g.route(fmt.Sprintf("/guilds/%s/members/%s", guildID, userID))
	if err != nil {
		return err
	}
	res, err := g.rest.Delete(ctx, kURL, nil, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}

type BanData struct {
	DeleteMessageDays int `json:"delete_message_days,omitempty"`
}

func (g *GuildAPI) Ban(ctx context.Context, guildID, userID structs.Snowflake, data BanData) error {
	bURL, err := g.route(fmt.Sprintf("/guilds/%s/bans/%s", guildID, userID))
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		return err
	}
	res, err := g.rest.Put(ctx, bURL, buf, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}

func (g *GuildAPI) Unban(ctx context.Context, guildID, userID structs.Snowflake) error {
	uURL, err := g.route(fmt.Sprintf("/guilds/%s/bans/%s", guildID, userID))
	if err != nil {
		return err
	}
	res, err := g.rest.Delete(ctx, uURL, nil, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}

func (g *GuildAPI) Leave(ctx context.Context, guildID structs.Snowflake) error {
	lURL, err := g.route(fmt.Sprintf("/users/@me/guilds/%s", guildID))
	if err != nil {
		return err
	}
	res, err := g.rest.Delete(ctx, lURL, nil, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}
