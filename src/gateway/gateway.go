package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lyrebird-dev/lyrebird/src/state"
	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// https://discord.com/developers/docs/events/gateway#message-content-intent
type GatewayIntent = int

var (
	GuildsIntent                = 1 << 0
	GuildMembersIntent          = 1 << 1
	GuildVoiceStatesIntent      = 1 << 7
	GuildPresencesIntent        = 1 << 8
	GuildMessagesIntent         = 1 << 9
	GuildMessageReactionIntent  = 1 << 10
	DirectMessageIntent         = 1 << 12
	DirectMessageReactionIntent = 1 << 13
	MessageContentIntent        = 1 << 15
)

// GatewayStatus is the connection-state machine. Incremental patches are
// applied to the long-lived caches only while Synced; anything read during
// AwaitingSnapshot or Resyncing besides the snapshot/resume traffic is
// dropped, recovery is always a full snapshot replay.
type GatewayStatus = string

const (
	StatusDisconnected     GatewayStatus = "DISCONNECTED"
	StatusIdentifying      GatewayStatus = "IDENTIFYING"
	StatusAwaitingSnapshot GatewayStatus = "AWAITING_SNAPSHOT"
	StatusSynced           GatewayStatus = "SYNCED"
	StatusResyncing        GatewayStatus = "RESYNCING"
)

type GatewayOpcode = int

const (
	OpcodeDispatch         GatewayOpcode = 0
	OpcodeHeartbeat        GatewayOpcode = 1
	OpcodeIdentify         GatewayOpcode = 2
	OpcodePresenceUpdate   GatewayOpcode = 3
	OpcodeVoiceStateUpdate GatewayOpcode = 4
	OpcodeResume           GatewayOpcode = 6
	OpcodeReconnect        GatewayOpcode = 7
	OpcodeRequestMembers   GatewayOpcode = 8
	OpcodeInvalidSession   GatewayOpcode = 9
	OpcodeHello            GatewayOpcode = 10
	OpcodeHeartbeatAck     GatewayOpcode = 11
)

type GatewayCloseEventCode = int

const (
	UnknownError         GatewayCloseEventCode = 4000
	UnknownOpcode        GatewayCloseEventCode = 4001
	DecodeError          GatewayCloseEventCode = 4002
	NotAuthenticated     GatewayCloseEventCode = 4003
	AuthenticationFailed GatewayCloseEventCode = 4004
	AlreadyAuthenticated GatewayCloseEventCode = 4005
	InvalidSeq           GatewayCloseEventCode = 4007
	RateLimited          GatewayCloseEventCode = 4008
	SessionTimedOut      GatewayCloseEventCode = 4009
	DisallowedIntents    GatewayCloseEventCode = 4014
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrDecode               = errors.New("invalid payload")
	ErrGatewayIsAlreadyOpen = errors.New("gateway is already open")
	ErrUnknown              = errors.New("unknown error")
	ErrDisallowedIntents    = errors.New("disallowed intent. you may have tried to specify an intent that you have not enabled")
)

type Gateway struct {
	rwlock           sync.RWMutex
	wsurl            string
	resumeGatewayURL string
	sessionID        string
	wsConn           *websocket.Conn
	wsDialer         *websocket.Dialer
	sequence         atomic.Uint64
	ctx              context.Context
	heartbeatTicker  *time.Ticker
	status           GatewayStatus

	botToken   string
	botIntents int
	botVersion uint

	state *state.State
	log   *slog.Logger
}

type Arguments struct {
	BotToken  string
	BotIntent []int

	// MaxMessages bounds the message ring buffer; zero means the default.
	MaxMessages int

	Handlers state.Handlers
	Logger   *slog.Logger
}

func NewGateway(args Arguments) *Gateway {
	// https://discord.com/developers/docs/reference#http-api
	wsBaseURL := url.URL{
		Scheme:   "wss",
		Host:     "gateway.discord.gg",
		RawQuery: fmt.Sprintf("v=%v&encoding=json", 10),
	}

	intents := 0
	for _, v := range args.BotIntent {
		intents += v
	}

	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	return &Gateway{
		wsDialer:   websocket.DefaultDialer,
		wsurl:      wsBaseURL.String(),
		botToken:   args.BotToken,
		botIntents: intents,
		botVersion: 10,
		status:     StatusDisconnected,
		log:        args.Logger,
		state: state.NewState(state.Arguments{
			Logger:      args.Logger,
			MaxMessages: args.MaxMessages,
			Handlers:    args.Handlers,
		}),
	}
}

// State exposes the cached object graph for queries.
func (g *Gateway) State() *state.State {
	return g.state
}

// Status returns the current connection status.
func (g *Gateway) Status() GatewayStatus {
	g.rwlock.RLock()
	defer g.rwlock.RUnlock()
	return g.status
}

func (g *Gateway) setStatus(status GatewayStatus) {
	g.rwlock.Lock()
	g.status = status
	g.rwlock.Unlock()
}

func (g *Gateway) Open(ctx context.Context) error {
	if g.Status() != StatusDisconnected {
		return ErrGatewayIsAlreadyOpen
	}
	return g.open(ctx)
}

func (g *Gateway) open(ctx context.Context) error {
	g.log.Info("connecting to gateway...")
	g.ctx = ctx
	g.setStatus(StatusIdentifying)
	var err error
	g.wsConn, _, err = g.wsDialer.DialContext(ctx, g.wsurl, nil)
	if err != nil {
		g.setStatus(StatusDisconnected)
		return err
	}

	_, rawMessage, err := g.wsConn.ReadMessage()
	if err != nil {
		g.setStatus(StatusDisconnected)
		return err
	}

	event := &structs.RawEvent{}
	if err := json.Unmarshal(rawMessage, event); err != nil {
		return err
	}

	if event.Op == OpcodeHello {
		d := new(structs.HelloEvent)
		if err := json.Unmarshal(event.D, &d); err != nil {
			return err
		}
		go g.heartbeating(time.Duration(d.HeartbeatInterval))
	}

	identify := structs.Event{
		Op: OpcodeIdentify,
		D: structs.IdentifyEvent{
			Token:   g.botToken,
			Intents: g.botIntents,
			Properties: structs.IdentifyEventProperties{
				Os:      "linux",
				Browser: "lyrebird",
				Device:  "lyrebird",
			},
		},
	}
	data, err := json.Marshal(identify)
	if err != nil {
		return err
	}

	err = g.sendEvent(websocket.TextMessage, data)
	if err != nil {
		return errors.New("failed to send identify event")
	}
	g.log.Info("identify event sent")
	g.setStatus(StatusAwaitingSnapshot)

	go g.listen(g.wsConn)
	return nil
}

func (g *Gateway) retry(fn func() error, max int) error {
	for attempts := 1; attempts <= max; attempts++ {
		err := fn()
		if err == nil {
			return nil
		}
		g.log.Error("error occured. retrying...", "attempt", attempts)
		delay := time.Duration(math.Pow(2, float64(attempts-1))*1000) * time.Millisecond
		select {
		case <-time.After(delay):
			continue
		case <-g.ctx.Done():
			return nil
		}
	}
	return errors.New("failed after several attempts")
}

func (g *Gateway) acceptEvent(rawMessage []byte) (*structs.RawEvent, error) {
	reader := bytes.NewBuffer(rawMessage)

	var e structs.RawEvent
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&e); err != nil {
		return &e, err
	}

	switch e.Op {
	case OpcodeHeartbeat:
		sequence := g.sequence.Load()
		data, _ := json.Marshal(structs.Event{
			Op: OpcodeHeartbeat,
			D:  sequence,
		})
		g.sendEvent(websocket.TextMessage, data)
	case OpcodeHeartbeatAck:
		g.log.Debug("heartbeat acknowledged")
	case OpcodeReconnect:
		g.reconnectWithRetry()
	case OpcodeInvalidSession:
		// session cannot be resumed, identify from scratch
		g.setStatus(StatusDisconnected)
		g.retry(func() error { return g.open(g.ctx) }, 5)
	case OpcodeDispatch:
		g.onEvent(e)
	}
	return &e, nil
}

// onEvent routes one dispatch envelope through the patch engine. The READY
// and RESUMED markers drive the status machine; everything else is only
// applied while Synced.
func (g *Gateway) onEvent(e structs.RawEvent) {
	if e.S != 0 {
		g.sequence.Store(e.S)
	}

	switch e.T {
	case structs.EventNameReady:
		readyEvent := &structs.ReadyEvent{}
		if err := json.Unmarshal(e.D, readyEvent); err != nil {
			g.log.Error("failed to decode snapshot", "error", err.Error())
			return
		}
		g.rwlock.Lock()
		g.resumeGatewayURL = readyEvent.ResumeGatewayURL
		g.sessionID = readyEvent.SessionID
		g.rwlock.Unlock()
		if err := g.state.Dispatch(e.T, e.D); err != nil {
			g.log.Error("snapshot ingestion failed", "error", err.Error())
			return
		}
		g.setStatus(StatusSynced)
		g.log.Info("gateway is synced", "session_id", readyEvent.SessionID)
	case structs.EventNameResumed:
		g.state.Dispatch(e.T, e.D)
		g.setStatus(StatusSynced)
		g.log.Info("gateway resumed")
	default:
		if g.Status() != StatusSynced {
			// a missed event between disconnect and resume is dropped;
			// the snapshot replay recovers
			g.log.Debug("dropping event outside synced state", "event_name", e.T)
			return
		}
		if err := g.state.Dispatch(e.T, e.D); err != nil {
			g.log.Warn("patch application reported an error",
				"event_name", e.T, "error", err.Error())
		}
	}
}

func (g *Gateway) reconnectWithRetry() {
	g.setStatus(StatusResyncing)
	if err := g.retry(g.reconnect, 5); err != nil {
		g.log.Error("failed to resume gateway session")
		g.setStatus(StatusDisconnected)
	}
}

func (g *Gateway) reconnect() error {
	rurl, err := url.Parse(g.resumeGatewayURL)
	if err != nil {
		return err
	}
	resumeUrl := url.URL{
		Scheme:   rurl.Scheme,
		Host:     rurl.Host,
		RawQuery: fmt.Sprintf("v=%v&encoding=json", g.botVersion),
	}
	conn, _, err := g.wsDialer.DialContext(g.ctx, resumeUrl.String(), nil)
	if err != nil {
		return err
	}
	g.rwlock.Lock()
	g.wsConn = conn
	g.rwlock.Unlock()

	seq := g.sequence.Load()
	resumeEvent := &structs.Event{
		Op: OpcodeResume,
		D: &structs.ResumeEvent{
			Token:     g.botToken,
			SessionID: g.sessionID,
			Seq:       seq,
		},
	}
	data, err := json.Marshal(resumeEvent)
	if err != nil {
		return err
	}
	err = g.sendEvent(websocket.TextMessage, data)
	if err != nil {
		return err
	}
	go g.listen(conn)
	return nil
}

// listen is the single ingestion goroutine for a connection. Envelopes are
// read and applied strictly in order; handler callbacks fan out from the
// patch engine after each mutation completes.
func (g *Gateway) listen(conn *websocket.Conn) {
	for {
		select {
		case <-g.ctx.Done():
			g.log.Info("gateway stop listening.")
			return
		default:
			g.rwlock.RLock()
			same := g.wsConn == conn
			g.rwlock.RUnlock()
			if !same {
				// a newer connection owns the stream now; retire this
				// listener
				return
			}
			_, message, err := conn.ReadMessage()
			if err != nil {
				if g.ctx.Err() != nil {
					return
				}
				g.log.Warn("transport failure", "error", err.Error())
				if closeErr, ok := err.(*websocket.CloseError); ok {
					switch closeErr.Code {
					case AuthenticationFailed, NotAuthenticated, DisallowedIntents:
						g.log.Error("fatal close code", "code", closeErr.Code)
						g.setStatus(StatusDisconnected)
						return
					}
				}
				g.reconnectWithRetry()
				return
			}
			g.acceptEvent(message)
		}
	}
}

func (g *Gateway) heartbeating(dur time.Duration) {
	g.heartbeatTicker = time.NewTicker(dur * time.Millisecond)
	for {
		select {
		case <-g.ctx.Done():
			g.heartbeatTicker.Stop()
			g.log.Info("gateway heartbeating process stopped")
			return
		case <-g.heartbeatTicker.C:
			sequence := g.sequence.Load()
			data, err := json.Marshal(structs.Event{
				Op: OpcodeHeartbeat,
				D:  sequence,
			})
			if err != nil {
				g.log.Error("failed to send heartbeat event")
				continue
			}
			g.sendEvent(websocket.TextMessage, data)
			g.log.Debug("gateway heartbeat event sent")
		}
	}
}

func (g *Gateway) Close() {
	if g.heartbeatTicker != nil {
		g.heartbeatTicker.Stop()
		g.log.Info("gateway heartbeat ticker stopped.")
	}
	if g.wsConn != nil {
		g.wsConn.Close()
	}
	g.setStatus(StatusDisconnected)
	g.log.Info("gateway connection stopped.")
}

func (g *Gateway) sendEvent(messageType int, data []byte) error {
	g.rwlock.Lock()
	defer g.rwlock.Unlock()
	return g.wsConn.WriteMessage(messageType, data)
}
