package game

type CatalogEntry struct {
	GameID      string `json:"game_id"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players"`
}

var catalog = []CatalogEntry{
	entry("ludo", "Ludo", "Classic Ludo! Roll the dice, move your pieces home. First to bring all 4 home wins!"),
	entry("tictactoe", "Tic Tac Toe", "Classic 3x3 grid game. Get 3 in a row to win!"),
	entry("paddlearena", "Paddle Arena", "Real-time pong with obstacles. Don't miss the ball!"),
	entry("connect4", "Connect 4", "Drop discs to connect 4 in a row. Classic strategy!"),
	entry("beachball", "Beach Ball", "Push the beach ball into your opponent's goal! Throw stones in the pool to hit the ball."),
	entry("carrom", "Carrom", "Classic carrom board game. Pocket all your coins before your opponent!"),
	entry("stealthering", "Diamond Heist", "Grab the diamond when the case opens! Don't tap too early!"),
	entry("treecutter", "Timber Chop", "Race to chop 100 logs! Dodge the branches or get stunned!"),
	entry("snakes", "Snakes", "Real-time 2-player snake battle! Control your snake and outlast your opponent!"),
	entry("pulltherope", "Pull The Rope", "Tap as fast as you can! Pull the rope to your side to win!"),
	entry("bamboobreaker", "Bamboo Breaker", "Panda tile-breaking battle! Move across bamboo tiles that crack under you. Push your opponent into holes!"),
}

func entry(id, name, desc string) CatalogEntry {
	return CatalogEntry{
		GameID:      id,
		Name:        name,
		ImageURL:    "/static/games/" + id + ".png",
		Description: desc,
		MinPlayers:  2,
		MaxPlayers:  2,
	}
}

// Catalog lists every selectable game, including ones without a server
// handler that are started by redirect.
func Catalog() []CatalogEntry {
	return append([]CatalogEntry(nil), catalog...)
}

func LookupCatalog(id string) (CatalogEntry, bool) {
	for _, g := range catalog {
		if g.GameID == id {
			return g, true
		}
	}
	return CatalogEntry{}, false
}
