package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lyrebird-dev/lyrebird/src/rest"
	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// Messages API.
// Provide methods to interact with "Messages" resources.
// Source: https://discord.com/developers/docs/resources/message
type MessageAPI struct {
	rest  rest.RESTClient
	nonce *snowflake.Node
	log   *slog.Logger
}

func New(restClient rest.RESTClient, log *slog.Logger) (*MessageAPI, error) {
	// nonces are platform snowflakes, so the generator has to run on the
	// platform epoch
	snowflake.Epoch = structs.DiscordEpoch
	node, err := snowflake.NewNode(0)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &MessageAPI{rest: restClient, nonce: node, log: log}, nil
}

func (m *MessageAPI) route(segments string) (string, error) {
	u, err := url.Parse(m.rest.URL())
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

type CreateMessageData struct {
	Content string          `json:"content"`
	Tts     bool            `json:"tts,omitempty"`
	Nonce   string          `json:"nonce,omitempty"` // Use nonce to verify a message was sent.
	Embeds  []structs.Embed `json:"embeds,omitempty"`
}

func (m *MessageAPI) CreateMessage(ctx context.Context, channelID structs.Snowflake, data CreateMessageData) (*structs.Message, error) {
	cmURL, err := m.route(fmt.Sprintf("/channels/%s/messages", channelID))
	if err != nil {
		return nil, err
	}
	if data.Nonce == "" {
		data.Nonce = m.nonce.Generate().String()
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		return nil, err
	}
	res, err := m.rest.Post(ctx, cmURL, buf, nil)
	if err != nil {
		return nil, err
	}
	if err := rest.CheckResponse(res); err != nil {
		return nil, err
	}
	defer res.Body.Close()
	msg := &structs.Message{}
	if err := json.NewDecoder(res.Body).Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

type EditMessageData struct {
	Content *string          `json:"content,omitempty"`
	Embeds  *[]structs.Embed `json:"embeds,omitempty"`
}

func (m *MessageAPI) EditMessage(ctx context.Context, channelID, messageID structs.Snowflake, data EditMessageData) (*structs.Message, error) {
	emURL, err := m.route(fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID))
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		return nil, err
	}
	res, err := m.rest.Patch(ctx, emURL, buf, nil)
	if err != nil {
		return nil, err
	}
	if err := rest.CheckResponse(res); err != nil {
		return nil, err
	}
	defer res.Body.Close()
	msg := &structs.Message{}
	if err := json.NewDecoder(res.Body).Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *MessageAPI) DeleteMessage(ctx context.Context, channelID, messageID structs.Snowflake) error {
	dmURL, err := m.route(fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID))
	if err != nil {
		return err
	}
	res, err := m.rest.Delete(ctx, dmURL, nil, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}

// DeleteMessageAfter schedules a deletion. The target being gone by the
// time the timer fires is expected and swallowed; any other failure goes
// to the log since nobody is left awaiting the result.
func (m *MessageAPI) DeleteMessageAfter(ctx context.Context, channelID, messageID structs.Snowflake, delay time.Duration) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		err := m.DeleteMessage(ctx, channelID, messageID)
		if err == nil {
			return
		}
		if httpErr, ok := err.(*rest.HTTPError); ok && httpErr.IsNotFound() {
			return
		}
		m.log.Warn("deferred message delete failed",
			"channel_id", channelID.String(),
			"message_id", messageID.String(),
			"error", err.Error())
	}()
}

// AddReaction places the client user's reaction. The emoji segment keeps
// its percent-escaping, so it joins against the full base URL rather than
// going through route.
func (m *MessageAPI) AddReaction(ctx context.Context, channelID, messageID structs.Snowflake, emoji string) error {
	rURL, err := url.JoinPath(m.rest.URL(), fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji)))
	if err != nil {
		return err
	}
	res, err := m.rest.Put(ctx, rURL, nil, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}

func (m *MessageAPI) RemoveReaction(ctx context.Context, channelID, messageID structs.Snowflake, emoji string) error {
	rURL, err := url.JoinPath(m.rest.URL(), fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji)))
	if err != nil {
		return err
	}
	res, err := m.rest.Delete(ctx, rURL, nil, nil)
	if err != nil {
		return err
	}
	return rest.CheckResponse(res)
}
