package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// AppendMessage stamps msg with an id and timestamp and pushes it to the
// head of the room log, trimming the log to MaxMessages.
func (s *Store) AppendMessage(ctx context.Context, code string, msg Message) (*Message, error) {
	now := s.now()
	msg.ID = s.ids.next(now)
	msg.Timestamp = now.UTC().Format(time.RFC3339)
	msg.Reactions = nil
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, messagesKey(code), payload)
		p.LTrim(ctx, messagesKey(code), 0, MaxMessages-1)
		p.Expire(ctx, messagesKey(code), s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append message %s: %w", code, err)
	}
	msg.Reactions = map[string][]string{}
	return &msg, nil
}

func (s *Store) AddTextMessage(ctx context.Context, code, sender, content string) (*Message, error) {
	return s.AppendMessage(ctx, code, Message{Type: MessageText, Sender: &sender, Content: content})
}

func (s *Store) AddVoiceMessage(ctx context.Context, code, sender, url string, duration float64) (*Message, error) {
	return s.AppendMessage(ctx, code, Message{Type: MessageVoice, Sender: &sender, URL: url, Duration: duration})
}

func (s *Store) AddImageMessage(ctx context.Context, code, sender, url string) (*Message, error) {
	return s.AppendMessage(ctx, code, Message{Type: MessageImage, Sender: &sender, URL: url})
}

// AddSystemMessage logs a sender-less notice such as "Ann joined".
func (s *Store) AddSystemMessage(ctx context.Context, code, content, subtype string) (*Message, error) {
	return s.AppendMessage(ctx, code, Message{Type: MessageSystem, Content: content, Subtype: subtype})
}

// RecentMessages returns up to n messages, newest first, with reactions.
func (s *Store) RecentMessages(ctx context.Context, code string, n int) ([]Message, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > MaxMessages {
		n = MaxMessages
	}
	raw, err := s.rdb.LRange(ctx, messagesKey(code), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return out, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(out))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i := range out {
			cmds[i] = p.HGetAll(ctx, reactionsKey(code, out[i].ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Reactions = groupReactions(cmds[i].Val())
	}
	return out, nil
}

// ToggleReaction applies the one-reaction-per-user rule for msgID.
func (s *Store) ToggleReaction(ctx context.Context, code, msgID, emoji, username string) (ReactionResult, error) {
	res, err := toggleReactionScript.Run(ctx, s.rdb,
		[]string{reactionsKey(code, msgID)},
		username, emoji, ttlSeconds(s.ttl),
	).StringSlice()
	if err != nil {
		return ReactionResult{}, fmt.Errorf("toggle reaction %s/%s: %w", code, msgID, err)
	}
	if len(res) != 2 {
		return ReactionResult{}, fmt.Errorf("toggle reaction %s/%s: unexpected reply %v", code, msgID, res)
	}
	return ReactionResult{Action: ReactionAction(res[0]), Emoji: emoji, OldEmoji: res[1]}, nil
}

// Reactions groups the users who reacted to msgID by emoji.
func (s *Store) Reactions(ctx context.Context, code, msgID string) (map[string][]string, error) {
	raw, err := s.rdb.HGetAll(ctx, reactionsKey(code, msgID)).Result()
	if err != nil {
		return nil, err
	}
	return groupReactions(raw), nil
}

func groupReactions(byUser map[string]string) map[string][]string {
	out := make(map[string][]string)
	for user, emoji := range byUser {
		out[emoji] = append(out[emoji], user)
	}
	for emoji := range out {
		sort.Strings(out[emoji])
	}
	return out
}
