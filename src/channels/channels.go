package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/lyrebird-dev/lyrebird/src/rest"
	"github.com/lyrebird-dev/lyrebird/src/state"
	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// Channels API.
// Source: https://discord.com/developers/docs/resources/channel
type ChannelAPI struct {
	rest  rest.RESTClient
	state *state.State
}

func New(restClient rest.RESTClient, st *state.State) *ChannelAPI {
	return &ChannelAPI{rest: restClient, state: st}
}

func (c *ChannelAPI) route(segments string) (string, error) {
	u, err := url.Parse(c.rest.URL())
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

type createDMData struct {
	RecipientID structs.Snowflake `json:"recipient_id"`
}

// CreateDM opens (or returns the existing) direct-message channel with the
// user. This is the one command whose result seeds the cache directly:
// the gateway does not echo DM channel creation back.
func (c *ChannelAPI) CreateDM(ctx context.Context, recipientID structs.Snowflake) (*structs.PrivateChannel, error) {
	dmURL, err := c.route("/users/@me/channels")
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(createDMData{RecipientID: recipientID}); err != nil {
		return nil, err
	}
	res, err := c.rest.Post(ctx, dmURL, buf, nil)
	if err != nil {
		return nil, err
	}
	if err := rest.CheckResponse(res); err != nil {
		return nil, err
	}
	defer res.Body.Close()
	ch := &structs.PrivateChannel{}
	if err := json.NewDecoder(res.Body).Decode(ch); err != nil {
		return nil, err
	}
	if c.state != nil {
		c.state.AddPrivateChannel(ch)
	}
	return ch, nil
}
