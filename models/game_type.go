package models

// GameType is the movement mode a map is built for. Each mode runs at a fixed
// server tick rate, and replays recorded at any other rate are rejected.
type GameType string

const (
	GameTypeSurf      GameType = "SURF"
	GameTypeBhop      GameType = "BHOP"
	GameTypeKZ        GameType = "KZ"
	GameTypeRJ        GameType = "RJ"
	GameTypeSJ        GameType = "SJ"
	GameTypeTrickSurf GameType = "TRICKSURF"
	GameTypeAhop      GameType = "AHOP"
	GameTypeParkour   GameType = "PARKOUR"
	GameTypeConc      GameType = "CONC"
	GameTypeDefrag    GameType = "DEFRAG"
)

var defaultTickRates = map[GameType]float32{
	GameTypeSurf:      0.015,
	GameTypeBhop:      0.01,
	GameTypeKZ:        0.0078125,
	GameTypeRJ:        0.015,
	GameTypeSJ:        0.015,
	GameTypeTrickSurf: 0.01,
	GameTypeAhop:      0.015,
	GameTypeParkour:   0.015,
	GameTypeConc:      0.01,
	GameTypeDefrag:    0.008,
}

// DefaultTickRate returns the mandated seconds-per-tick for the game type.
// ok is false for unknown types.
func (g GameType) DefaultTickRate() (rate float32, ok bool) {
	rate, ok = defaultTickRates[g]
	return rate, ok
}

func (g GameType) Valid() bool {
	_, ok := defaultTickRates[g]
	return ok
}
