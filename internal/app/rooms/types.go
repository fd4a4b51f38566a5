package rooms

import "shinetwoplay/internal/store"

type CreateRequest struct {
	Username string `json:"username"`
	Gender   string `json:"gender"`
}

type CreateResponse struct {
	RoomCode    string `json:"room_code"`
	RedirectURL string `json:"redirect_url"`
}

type JoinRequest struct {
	RoomCode string `json:"room_code"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
}

type JoinResponse struct {
	RoomCode       string   `json:"room_code"`
	Owner          string   `json:"owner"`
	Players        []string `json:"players"`
	RedirectURL    string   `json:"redirect_url"`
	IsReconnecting bool     `json:"is_reconnecting"`
}

type RoomResponse struct {
	RoomCode     string           `json:"room_code"`
	Owner        string           `json:"owner"`
	Players      []store.Player   `json:"players"`
	SelectedGame string           `json:"selected_game"`
	Rounds       int              `json:"rounds"`
	Status       store.RoomStatus `json:"status"`
	CreatedAt    string           `json:"created_at"`
}

type MessagesResponse struct {
	RoomCode string          `json:"room_code"`
	Items    []store.Message `json:"items"`
	Limit    int             `json:"limit"`
}
