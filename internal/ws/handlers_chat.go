package ws

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"shinetwoplay/internal/validate"
)

type limit struct {
	n      int
	window time.Duration
}

// Per-user fixed windows, shared by every connection of the user.
var limits = map[string]limit{
	"chat":  {10, 10 * time.Second},
	"voice": {5, time.Minute},
	"image": {10, time.Minute},
	"react": {20, time.Minute},
}

func (s *Server) allow(ctx context.Context, category, user string) error {
	l := limits[category]
	ok, err := s.store.Allow(ctx, category, user, l.n, l.window)
	if err != nil {
		return err
	}
	if !ok {
		metricRateLimited.WithLabelValues(category).Inc()
		return ErrRateLimited
	}
	return nil
}

func (s *Server) handleChat(ctx context.Context, c *Client, in Inbound) error {
	text, err := validate.ChatText(in.Msg)
	if err != nil {
		return err
	}
	if err := s.allow(ctx, "chat", c.username); err != nil {
		return err
	}
	msg, err := s.store.AddTextMessage(ctx, c.room, c.username, text)
	if err != nil {
		return err
	}
	if in.TempID != "" {
		c.enqueue(encode(evMessageConfirmed, MessageConfirmed{TempID: in.TempID, MessageID: msg.ID}))
	}
	s.hub.Broadcast(ctx, c.room, evChat, msg, "")
	return nil
}

func (s *Server) handleVoice(ctx context.Context, c *Client, in Inbound) error {
	if in.URL == "" {
		return ErrMissingURL
	}
	if err := validate.VoiceDuration(in.Duration); err != nil {
		return err
	}
	rel, err := s.mediaPath(c.room, in.URL)
	if err != nil {
		return err
	}
	if err := s.allow(ctx, "voice", c.username); err != nil {
		return err
	}
	s.trackMedia(ctx, c.room, rel)
	msg, err := s.store.AddVoiceMessage(ctx, c.room, c.username, in.URL, in.Duration)
	if err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evVoiceMessage, msg, "")
	return nil
}

func (s *Server) handleImage(ctx context.Context, c *Client, in Inbound) error {
	if in.URL == "" {
		return ErrMissingURL
	}
	rel, err := s.mediaPath(c.room, in.URL)
	if err != nil {
		return err
	}
	if err := s.allow(ctx, "image", c.username); err != nil {
		return err
	}
	s.trackMedia(ctx, c.room, rel)
	msg, err := s.store.AddImageMessage(ctx, c.room, c.username, in.URL)
	if err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evImageMessage, msg, "")
	return nil
}

// mediaPath resolves a locally served upload to its path under the media
// root. Uploads live in a per-room directory; a local URL outside it is
// refused. External URLs return "".
func (s *Server) mediaPath(room, url string) (string, error) {
	prefix := s.cfg.MediaURLPrefix
	if prefix == "" || !strings.HasPrefix(url, prefix) {
		return "", nil
	}
	rel := path.Clean("/" + strings.TrimPrefix(url, prefix))
	if !strings.HasPrefix(rel, "/"+room+"/") {
		return "", ErrMediaScope
	}
	return strings.TrimPrefix(rel, "/"), nil
}

// trackMedia remembers a local upload so it is deleted with the room.
func (s *Server) trackMedia(ctx context.Context, room, rel string) {
	if rel == "" {
		return
	}
	if err := s.store.TrackMedia(ctx, room, rel); err != nil {
		log.Warn().Err(err).Str("room", room).Msg("media_track_failed")
	}
}

func (s *Server) handleTyping(ctx context.Context, c *Client, _ Inbound) error {
	if err := s.store.SetTyping(ctx, c.room, c.username); err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evTyping, UserOnly{User: c.username}, c.username)
	return nil
}

func (s *Server) handleStopTyping(ctx context.Context, c *Client, _ Inbound) error {
	if err := s.store.ClearTyping(ctx, c.room, c.username); err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evStopTyping, UserOnly{User: c.username}, c.username)
	return nil
}

// indicator relays a transient activity hint to the other members.
func (s *Server) indicator(event string) eventHandler {
	return func(ctx context.Context, c *Client, _ Inbound) error {
		s.hub.Broadcast(ctx, c.room, event, UserOnly{User: c.username}, c.username)
		return nil
	}
}

func (s *Server) handleReact(ctx context.Context, c *Client, in Inbound) error {
	if in.MessageID == "" || in.Emoji == "" {
		return ErrMissingReaction
	}
	if err := s.allow(ctx, "react", c.username); err != nil {
		return err
	}
	return s.toggleReaction(ctx, c, in.MessageID, in.Emoji)
}

// handleRemoveReaction only takes back the caller's current emoji; any
// other request is ignored.
func (s *Server) handleRemoveReaction(ctx context.Context, c *Client, in Inbound) error {
	if in.MessageID == "" || in.Emoji == "" {
		return nil
	}
	current, err := s.store.Reactions(ctx, c.room, in.MessageID)
	if err != nil {
		return err
	}
	for _, user := range current[in.Emoji] {
		if user == c.username {
			return s.toggleReaction(ctx, c, in.MessageID, in.Emoji)
		}
	}
	return nil
}

func (s *Server) toggleReaction(ctx context.Context, c *Client, msgID, emoji string) error {
	res, err := s.store.ToggleReaction(ctx, c.room, msgID, emoji, c.username)
	if err != nil {
		return err
	}
	s.hub.Broadcast(ctx, c.room, evMessageReaction, MessageReaction{
		MessageID: msgID,
		User:      c.username,
		Emoji:     emoji,
		Action:    string(res.Action),
		OldEmoji:  res.OldEmoji,
	}, "")
	return nil
}
