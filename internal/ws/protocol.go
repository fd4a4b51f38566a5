package ws

import (
	"encoding/json"

	"shinetwoplay/internal/store"
)

// Inbound event names.
const (
	evChat              = "chat"
	evVoiceMessage      = "voice_message"
	evImageMessage      = "image_message"
	evTyping            = "typing"
	evStopTyping        = "stop_typing"
	evReady             = "ready"
	evSelectGame        = "select_game"
	evRoundChange       = "round_change"
	evStartGame         = "start_game"
	evReactMessage      = "react_message"
	evRemoveReaction    = "remove_reaction"
	evSyncState         = "sync_state"
	evPing              = "ping"
	evRecordingVoice    = "recording_voice"
	evUploadingImage    = "uploading_image"
	evTransferOwnership = "transfer_ownership"
	evKickPlayer        = "kick_player"
	evGameMove          = "game_move"
	evGameInput         = "game_input"
)

// Outbound-only event names.
const (
	evPlayerJoin          = "player_join"
	evPlayerDisconnecting = "player_disconnecting"
	evPlayerReconnected   = "player_reconnected"
	evPlayerLeft          = "player_left"
	evPlayerKicked        = "player_kicked"
	evOwnerChanged        = "owner_changed"
	evMessageConfirmed    = "message_confirmed"
	evReadyState          = "ready_state"
	evGameSelected        = "game_selected"
	evRoundUpdate         = "round_update"
	evGameLoaded          = "game_loaded"
	evGameUpdate          = "game_update"
	evRoundEnded          = "round_ended"
	evRoundStarted        = "round_started"
	evGameEnded           = "game_ended"
	evGamePaused          = "game_paused"
	evGameResumed         = "game_resumed"
	evPlayersNotReady     = "players_not_ready"
	evMessageReaction     = "message_reaction"
	evRoomState           = "room_state"
	evPong                = "pong"
	evError               = "error"
)

// Inbound is the union of every client event payload. Only the fields the
// named event uses are read.
type Inbound struct {
	Event      string          `json:"event"`
	Msg        string          `json:"msg,omitempty"`
	TempID     string          `json:"temp_id,omitempty"`
	URL        string          `json:"url,omitempty"`
	Duration   float64         `json:"duration,omitempty"`
	Ready      bool            `json:"ready,omitempty"`
	Game       string          `json:"game,omitempty"`
	Round      int             `json:"round,omitempty"`
	MessageID  string          `json:"message_id,omitempty"`
	Emoji      string          `json:"emoji,omitempty"`
	TargetUser string          `json:"target_user,omitempty"`
	Action     string          `json:"action,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type Outbound struct {
	Event string     `json:"event"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomView struct {
	Code         string           `json:"code"`
	Owner        string           `json:"owner"`
	SelectedGame string           `json:"selected_game"`
	Rounds       int              `json:"rounds"`
	Status       store.RoomStatus `json:"status"`
}

type GameView struct {
	GameID      string `json:"game_id"`
	GameState   any    `json:"game_state"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"total_rounds"`
}

type RoomState struct {
	Room     RoomView                `json:"room"`
	Players  map[string]store.Player `json:"players"`
	Messages []store.Message         `json:"messages"`
	Game     *GameView               `json:"game,omitempty"`
}

type PlayerJoin struct {
	User    string                  `json:"user"`
	Gender  string                  `json:"gender"`
	Avatar  string                  `json:"avatar"`
	IsOwner bool                    `json:"is_owner"`
	Players map[string]store.Player `json:"players"`
}

type PlayerEvent struct {
	User    string                  `json:"user"`
	Players map[string]store.Player `json:"players,omitempty"`
}

type PlayerDisconnecting struct {
	User        string                  `json:"user"`
	GracePeriod int                     `json:"grace_period"`
	Players     map[string]store.Player `json:"players"`
}

type PlayerKicked struct {
	User             string `json:"user"`
	KickedBy         string `json:"kicked_by"`
	ShouldDisconnect bool   `json:"should_disconnect"`
}

type OwnerChanged struct {
	OldOwner string                  `json:"old_owner"`
	NewOwner string                  `json:"new_owner"`
	Players  map[string]store.Player `json:"players"`
}

type MessageConfirmed struct {
	TempID    string `json:"temp_id"`
	MessageID string `json:"message_id"`
}

type UserOnly struct {
	User string `json:"user"`
}

type ReadyState struct {
	User  string `json:"user"`
	Ready bool   `json:"ready"`
}

type GameSelected struct {
	GameID   string `json:"game_id"`
	GameName string `json:"game_name"`
	ImageURL string `json:"image_url"`
}

type RoundUpdate struct {
	Rounds int `json:"rounds"`
}

type StartGame struct {
	Game        string `json:"game"`
	RedirectURL string `json:"redirect_url"`
}

type RoundEnded struct {
	RoundWinner string         `json:"round_winner"`
	Scores      map[string]int `json:"scores"`
	Round       int            `json:"round"`
	Timestamp   int64          `json:"timestamp"`
	DisplayMS   int64          `json:"display_ms"`
}

type RoundStarted struct {
	Round       int `json:"round"`
	TotalRounds int `json:"total_rounds"`
	GameState   any `json:"game_state"`
}

type GameEnded struct {
	GameWinner  string         `json:"game_winner"`
	FinalScores map[string]int `json:"final_scores"`
	DisplayMS   int64          `json:"display_ms"`
	Reason      string         `json:"reason"`
}

type GamePaused struct {
	User      string `json:"user"`
	Countdown int    `json:"countdown"`
}

type GameResumed struct {
	User      string `json:"user"`
	GameState any    `json:"game_state"`
}

type PlayersNotReady struct {
	Players []string `json:"players"`
}

type MessageReaction struct {
	MessageID string `json:"message_id"`
	User      string `json:"user"`
	Emoji     string `json:"emoji"`
	Action    string `json:"action"`
	OldEmoji  string `json:"old_emoji,omitempty"`
}

type GameInput struct {
	User string          `json:"user"`
	Data json.RawMessage `json:"data"`
}

func encode(event string, data any) []byte {
	msg, _ := json.Marshal(Outbound{Event: event, Data: data})
	return msg
}

func encodeError(code, message string) []byte {
	msg, _ := json.Marshal(Outbound{Event: evError, Error: &ErrorBody{Code: code, Message: message}})
	return msg
}
