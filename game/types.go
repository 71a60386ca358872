package game

import "fmt"

// BoardSize is the side length of the square match grid.
const BoardSize = 16

// Direction is a facing or step direction on the grid.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Valid reports whether d is one of the four grid directions.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// ParseDirection converts a wire string into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("invalid direction %q", s)
	}
	return d, nil
}

// Coordinates is a grid position. Bounds are enforced by the server.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Character is a mobile entity on the board (enemy or player avatar).
type Character struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Orientation Direction `json:"orientation"`
	EnemyState  string    `json:"enemyState,omitempty"`
}

// Item is a placed object: fruit, special fruit or ice block.
type Item struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// BoardCell is a single occupant record of the grid.
type BoardCell struct {
	Coordinates Coordinates `json:"coordinates"`
	Item        *Item       `json:"item"`
	Character   *Character  `json:"character"`
	Frozen      bool        `json:"frozen"`
}

// key identifies the occupant of a cell: item id first, then character id,
// then the position for anonymous ice.
func (c BoardCell) key() string {
	switch {
	case c.Item != nil && c.Item.ID != "":
		return "item:" + c.Item.ID
	case c.Character != nil && c.Character.ID != "":
		return "char:" + c.Character.ID
	default:
		return fmt.Sprintf("pos:%d,%d", c.Coordinates.X, c.Coordinates.Y)
	}
}

// Item and character type labels the board understands.
const (
	ItemIceBlock      = "iceBlock"
	ItemSpecialFruit  = "specialfruit"
	ItemEspecialFruit = "especialFruit"

	CharacterPlayer   = "player"
	CharacterIceCream = "ice-cream"
)

func isPlayerCharacter(c *Character) bool {
	return c != nil && (c.Type == CharacterPlayer || c.Type == CharacterIceCream)
}

func isSpecialFruit(it *Item) bool {
	return it != nil && (it.Type == ItemSpecialFruit || it.Type == ItemEspecialFruit)
}

func isFruit(it *Item) bool {
	return it != nil && it.Type != ItemIceBlock
}

// PlayerStatus is the life state of a seat.
type PlayerStatus string

const (
	PlayerAlive PlayerStatus = "alive"
	PlayerDead  PlayerStatus = "dead"
)

// GameState is the match lifecycle as seen by this client.
type GameState string

const (
	GamePlaying        GameState = "playing"
	GamePaused         GameState = "paused"
	GameWon            GameState = "won"
	GameLost           GameState = "lost"
	GameLostConnection GameState = "lost-connection"
)

// ParseResult maps an end-of-match result onto a GameState. The server has
// used both the won/lost and win/lose spellings.
func ParseResult(s string) (GameState, error) {
	switch s {
	case "won", "win":
		return GameWon, nil
	case "lost", "lose":
		return GameLost, nil
	}
	return "", fmt.Errorf("invalid match result %q", s)
}

// UserInformation is one seat of the match.
type UserInformation struct {
	ID        string       `json:"id"`
	MatchID   string       `json:"matchId"`
	Name      string       `json:"name"`
	Flavour   string       `json:"flavour"`
	Position  Coordinates  `json:"position"`
	Direction Direction    `json:"direction"`
	State     PlayerStatus `json:"state"`
}
