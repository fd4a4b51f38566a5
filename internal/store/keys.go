package store

import "fmt"

func roomPrefix(code string) string      { return fmt.Sprintf("room:%s:", code) }
func existsKey(code string) string       { return roomPrefix(code) + "exists" }
func infoKey(code string) string         { return roomPrefix(code) + "info" }
func membersKey(code string) string      { return roomPrefix(code) + "members" }
func playerPrefix(code string) string    { return roomPrefix(code) + "player:" }
func playerKey(code, user string) string { return playerPrefix(code) + user }
func kickedKey(code string) string       { return roomPrefix(code) + "kicked" }
func messagesKey(code string) string     { return roomPrefix(code) + "messages" }
func mediaKey(code string) string        { return roomPrefix(code) + "media" }
func gameKey(code string) string         { return roomPrefix(code) + "game" }

func disconnectedKey(code, user string) string {
	return roomPrefix(code) + "disconnected:" + user
}

func reactionsKey(code, msgID string) string {
	return roomPrefix(code) + "reactions:" + msgID
}

func typingKey(code, user string) string {
	return roomPrefix(code) + "typing:" + user
}

func rateLimitKey(category, user string) string {
	return "ratelimit:" + category + ":" + user
}

// groupKeys are refreshed together on room activity. Player hashes are
// found through the members set inside the refresh script.
func groupKeys(code string) []string {
	return []string{
		existsKey(code),
		infoKey(code),
		membersKey(code),
		kickedKey(code),
		messagesKey(code),
		mediaKey(code),
		gameKey(code),
	}
}
