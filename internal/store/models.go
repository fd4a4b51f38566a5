package store

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
)

const DefaultRounds = 3

type Room struct {
	Code         string     `json:"code"`
	Owner        string     `json:"owner"`
	SelectedGame string     `json:"selected_game"`
	Rounds       int        `json:"rounds"`
	Status       RoomStatus `json:"status"`
	CreatedAt    string     `json:"created_at,omitempty"`
}

type Player struct {
	Username    string `json:"username"`
	Gender      string `json:"gender"`
	Avatar      string `json:"avatar"`
	IsOwner     bool   `json:"is_owner"`
	IsReady     bool   `json:"is_ready"`
	IsConnected bool   `json:"is_connected"`
	JoinedAt    int64  `json:"joined_at,omitempty"`
}

// PlayerMap keys players by username, the shape clients render.
func PlayerMap(players []Player) map[string]Player {
	out := make(map[string]Player, len(players))
	for _, p := range players {
		out[p.Username] = p
	}
	return out
}

type JoinOutcome int

const (
	JoinedFresh JoinOutcome = iota + 1
	// JoinReclaimed means the username held a disconnected seat whose grace
	// window had already lapsed but had not been swept yet.
	JoinReclaimed
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageVoice  MessageType = "voice"
	MessageImage  MessageType = "image"
	MessageSystem MessageType = "system"
)

type Message struct {
	ID        string              `json:"id"`
	Type      MessageType         `json:"type"`
	Sender    *string             `json:"sender"`
	Timestamp string              `json:"timestamp"`
	Content   string              `json:"content,omitempty"`
	URL       string              `json:"url,omitempty"`
	Duration  float64             `json:"duration,omitempty"`
	Subtype   string              `json:"subtype,omitempty"`
	Reactions map[string][]string `json:"reactions"`
}

type ReactionAction string

const (
	ReactionAdded    ReactionAction = "added"
	ReactionRemoved  ReactionAction = "removed"
	ReactionReplaced ReactionAction = "replaced"
)

type ReactionResult struct {
	Action   ReactionAction `json:"action"`
	Emoji    string         `json:"emoji"`
	OldEmoji string         `json:"old_emoji,omitempty"`
}

// Finalization reports what happened when a grace window was closed.
type Finalization struct {
	Removed   bool
	NewOwner  string
	Remaining int
	Connected int
}
