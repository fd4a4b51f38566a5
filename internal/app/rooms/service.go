package rooms

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"shinetwoplay/internal/activity"
	"shinetwoplay/internal/store"
	"shinetwoplay/internal/validate"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 10
	defaultMessages = 50
)

// Service backs the room HTTP API. Seats are only claimed by the websocket
// handshake; Join here is a pre-flight check for the lobby page.
type Service struct {
	store    *store.Store
	activity *activity.Recorder
	newCode  func() string
}

func NewService(st *store.Store, rec *activity.Recorder) *Service {
	return &Service{store: st, activity: rec, newCode: randomCode}
}

func randomCode() string {
	var b strings.Builder
	size := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < validate.RoomCodeLen; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			panic(err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String()
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if err := validate.Username(req.Username); err != nil {
		return nil, err
	}
	if err := validate.Gender(req.Gender); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.newCode()
		_, err := s.store.CreateRoom(ctx, code, req.Username)
		if errors.Is(err, store.ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.activity.Record(activity.Event{Kind: activity.RoomCreated, Room: code, User: req.Username})
		log.Info().Str("room", code).Str("user", req.Username).Msg("room_created")
		return &CreateResponse{RoomCode: code, RedirectURL: roomURL(code, req.Username, req.Gender)}, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Join reports whether username could take a seat in the room right now.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*JoinResponse, error) {
	code := strings.ToUpper(req.RoomCode)
	if err := validate.RoomCode(code); err != nil {
		return nil, err
	}
	if err := validate.Username(req.Username); err != nil {
		return nil, err
	}
	if err := validate.Gender(req.Gender); err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	kicked, err := s.store.IsKicked(ctx, code, req.Username)
	if err != nil {
		return nil, err
	}
	if kicked {
		return nil, store.ErrPlayerKicked
	}
	players, err := s.store.ListPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	reconnecting := false
	for _, p := range players {
		if p.Username != req.Username {
			continue
		}
		if reconnecting, err = s.store.InGracePeriod(ctx, code, req.Username); err != nil {
			return nil, err
		}
		if !reconnecting && p.IsConnected {
			return nil, ErrUsernameTaken
		}
	}
	if !reconnecting && len(players) >= store.MaxPlayers && !seated(players, req.Username) {
		return nil, store.ErrRoomFull
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Username)
	}
	return &JoinResponse{
		RoomCode:       code,
		Owner:          room.Owner,
		Players:        names,
		RedirectURL:    roomURL(code, req.Username, req.Gender),
		IsReconnecting: reconnecting,
	}, nil
}

func seated(players []store.Player, username string) bool {
	for _, p := range players {
		if p.Username == username {
			return true
		}
	}
	return false
}

func (s *Service) Get(ctx context.Context, code string) (*RoomResponse, error) {
	code = strings.ToUpper(code)
	if err := validate.RoomCode(code); err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	return &RoomResponse{
		RoomCode:     code,
		Owner:        room.Owner,
		Players:      players,
		SelectedGame: room.SelectedGame,
		Rounds:       room.Rounds,
		Status:       room.Status,
		CreatedAt:    room.CreatedAt,
	}, nil
}

func (s *Service) Messages(ctx context.Context, code string, limit int) (*MessagesResponse, error) {
	code = strings.ToUpper(code)
	if err := validate.RoomCode(code); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessages
	}
	if limit > store.MaxMessages {
		limit = store.MaxMessages
	}
	exists, err := s.store.RoomExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrRoomNotFound
	}
	items, err := s.store.RecentMessages(ctx, code, limit)
	if err != nil {
		return nil, err
	}
	return &MessagesResponse{RoomCode: code, Items: items, Limit: limit}, nil
}

func roomURL(code, username, gender string) string {
	q := url.Values{}
	q.Set("name", username)
	q.Set("gender", gender)
	return "/rooms/" + code + "/?" + q.Encode()
}
