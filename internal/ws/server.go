package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/config"
	"shinetwoplay/internal/errkind"
	"shinetwoplay/internal/game"
	"shinetwoplay/internal/store"
	"shinetwoplay/internal/validate"
)

type Config struct {
	RevealDelay    time.Duration
	RoundDisplay   time.Duration
	GameOverDelay  time.Duration
	JanitorEvery   time.Duration
	EventsPerSec   float64
	EventBurst     int
	AllowedOrigins []string
	MediaRoot      string
	MediaURLPrefix string
}

func ConfigFrom(cfg config.AppConfig) Config {
	return Config{
		RevealDelay:    cfg.Room.RevealDelay,
		RoundDisplay:   cfg.Room.RoundDisplay,
		GameOverDelay:  cfg.Room.GameOverDelay,
		JanitorEvery:   cfg.Room.JanitorEvery,
		EventsPerSec:   cfg.Room.EventsPerSec,
		EventBurst:     cfg.Room.EventBurst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MediaRoot:      cfg.Server.MediaRoot,
		MediaURLPrefix: cfg.Server.MediaURLPrefix,
	}
}

type eventHandler func(ctx context.Context, c *Client, in Inbound) error

// Server is the realtime session controller: it admits websocket
// connections into rooms and turns their events into store and engine
// mutations followed by room broadcasts.
type Server struct {
	store    *store.Store
	engine   *game.Engine
	hub      *Hub
	activity *activity.Recorder
	rounds   *roundTimers
	janitor  *Janitor
	upgrader websocket.Upgrader
	cfg      Config
	handlers map[string]eventHandler

	mu      sync.Mutex
	baseCtx context.Context
}

func NewServer(st *store.Store, engine *game.Engine, hub *Hub, rec *activity.Recorder, cfg Config) *Server {
	if cfg.EventsPerSec <= 0 {
		cfg.EventsPerSec = 30
	}
	if cfg.EventBurst <= 0 {
		cfg.EventBurst = 60
	}
	if cfg.JanitorEvery <= 0 {
		cfg.JanitorEvery = time.Second
	}
	s := &Server{
		store:    st,
		engine:   engine,
		hub:      hub,
		activity: rec,
		rounds:   newRoundTimers(),
		cfg:      cfg,
		baseCtx:  context.Background(),
	}
	s.janitor = newJanitor(s, cfg.JanitorEvery)
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.handlers = map[string]eventHandler{
		evChat:              s.handleChat,
		evVoiceMessage:      s.handleVoice,
		evImageMessage:      s.handleImage,
		evTyping:            s.handleTyping,
		evStopTyping:        s.handleStopTyping,
		evReady:             s.handleReady,
		evSelectGame:        s.handleSelectGame,
		evRoundChange:       s.handleRoundChange,
		evStartGame:         s.handleStartGame,
		evReactMessage:      s.handleReact,
		evRemoveReaction:    s.handleRemoveReaction,
		evSyncState:         s.handleSyncState,
		evPing:              s.handlePing,
		evRecordingVoice:    s.indicator(evRecordingVoice),
		evUploadingImage:    s.indicator(evUploadingImage),
		evTransferOwnership: s.handleTransferOwnership,
		evKickPlayer:        s.handleKick,
		evGameMove:          s.handleGameMove,
		evGameInput:         s.handleGameInput,
	}
	return s
}

// Start runs the grace-period janitor. Round timers and janitor work use
// ctx, so they outlive the connections that triggered them.
func (s *Server) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	s.rounds.setContext(ctx)
	go s.janitor.Run(ctx)
}

func (s *Server) ctx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.cfg.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

type joinMode int

const (
	joinFresh joinMode = iota
	joinReclaimed
	joinReconnected
)

// HandleWS serves GET /ws/room/{code}?name=U&gender=G.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Guest"
	}
	gender := r.URL.Query().Get("gender")
	if gender == "" {
		gender = "male"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ctx := s.ctx()
	player, mode, err := s.admit(ctx, code, name, gender)
	if err != nil {
		s.reject(conn, code, name, err)
		return
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.EventsPerSec), s.cfg.EventBurst)
	c := newClient(conn, code, name, limiter)
	s.hub.Join(c)
	s.janitor.Cancel(code, name)
	go c.writeLoop()

	log.Info().Str("room", code).Str("user", name).Str("conn_id", c.id).Int("mode", int(mode)).Msg("ws_connected")
	s.afterJoin(ctx, c, player, mode)
	c.readLoop(ctx, s.dispatch)
	s.afterLeave(c)
	log.Info().Str("room", code).Str("user", name).Str("conn_id", c.id).Msg("ws_disconnected")
}

// admit runs the join checks in handshake order and claims a seat.
func (s *Server) admit(ctx context.Context, code, name, gender string) (*store.Player, joinMode, error) {
	if utf8.RuneCountInString(name) > validate.MaxUsernameLen {
		return nil, 0, validate.ErrUsernameTooLong
	}
	if err := validate.Username(name); err != nil {
		return nil, 0, err
	}
	if err := validate.Gender(gender); err != nil {
		return nil, 0, err
	}
	exists, err := s.store.RoomExists(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, store.ErrRoomNotFound
	}
	kicked, err := s.store.IsKicked(ctx, code, name)
	if err != nil {
		return nil, 0, err
	}
	if kicked {
		return nil, 0, store.ErrPlayerKicked
	}
	inGrace, err := s.store.InGracePeriod(ctx, code, name)
	if err != nil {
		return nil, 0, err
	}
	if inGrace {
		p, err := s.store.Reconnect(ctx, code, name)
		if err == nil {
			return p, joinReconnected, nil
		}
		if !errors.Is(err, store.ErrGraceExpired) {
			return nil, 0, err
		}
	}
	p, outcome, err := s.store.AddPlayer(ctx, code, name, gender)
	if err != nil {
		return nil, 0, err
	}
	if outcome == store.JoinReclaimed {
		return p, joinReclaimed, nil
	}
	return p, joinFresh, nil
}

func (s *Server) reject(conn *websocket.Conn, room, name string, err error) {
	code, reason := closeFor(err)
	metricRejectedJoins.WithLabelValues(reason).Inc()
	ev := log.Info()
	if code == CloseInternalError {
		ev = log.Error().Err(err)
	}
	ev.Str("room", room).Str("user", name).Int("close_code", code).Msg("ws_join_rejected")
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = conn.Close()
}

func (s *Server) dispatch(ctx context.Context, c *Client, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.enqueue(errorFrame(ErrBadJSON))
		return
	}
	h, ok := s.handlers[in.Event]
	if !ok {
		c.enqueue(encodeError(ErrUnknownEvent.Code, "unknown event: "+in.Event))
		return
	}
	metricEvents.WithLabelValues(in.Event).Inc()
	if err := s.store.RefreshTTL(ctx, c.room); err != nil {
		log.Warn().Err(err).Str("room", c.room).Msg("room_ttl_refresh_failed")
	}
	if err := h(ctx, c, in); err != nil {
		if errkind.Of(err) == errkind.Infrastructure {
			log.Error().Err(err).Str("room", c.room).Str("user", c.username).Str("event", in.Event).Msg("ws_event_failed")
		}
		c.enqueue(errorFrame(err))
	}
}
