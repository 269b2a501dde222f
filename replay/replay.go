// Package replay reads and writes the binary replay files (.mrf) the game
// client uploads when a run ends.
//
// Layout (all integers little-endian):
//
//	magic u32 | version u8
//	mapName, mapHash, playerName, steamID  (NUL-terminated strings)
//	tickRate f32 | runFlags u32 | runDate (string)
//	startTick u32 | stopTick u32 | trackNum u8 | zoneNum u8
//	hasStats u8 | zoneCount u8 | [overall BaseStats | zoneCount × BaseStats]
//	frameCount u32 | frameCount × Frame
package replay

// Magic identifies a replay file ("MOMR" read as a little-endian u32).
const Magic uint32 = 0x524D4F4D

// Version is the replay format version written by Encode when none is set.
const Version uint8 = 1

// MaxStringLength bounds every string field, terminator excluded.
const MaxStringLength = 1024

const (
	baseStatsSize = 4*2 + 4*2 + 4*2 + 4*8
	frameSize     = 4*3 + 4*3 + 4 + 4
)

// Replay is a decoded replay file. OverallStats is nil when the file carries
// no stats section.
type Replay struct {
	Magic        uint32
	Version      uint8
	Header       Header
	OverallStats *BaseStats
	ZoneStats    []ZoneStats
	Frames       []Frame
}

type Header struct {
	MapName    string
	MapHash    string
	PlayerName string
	SteamID    uint64
	TickRate   float32
	RunFlags   uint32
	RunDate    string
	StartTick  uint32
	StopTick   uint32
	TrackNum   uint8
	ZoneNum    uint8
}

// Ticks is the run length in ticks. It is negative when the client reports a
// stop tick before the start tick.
func (h Header) Ticks() int64 {
	return int64(h.StopTick) - int64(h.StartTick)
}

// BaseStats are the per-run (or per-zone) statistics the client records.
// EnterTime and TotalTime are in seconds; on the wire they are tick counts.
type BaseStats struct {
	Jumps          uint32
	Strafes        uint32
	AvgStrafeSync  float32
	AvgStrafeSync2 float32
	EnterTime      float64
	TotalTime      float64
	VelMax3D       float32
	VelMax2D       float32
	VelAvg3D       float32
	VelAvg2D       float32
	VelEnter3D     float32
	VelEnter2D     float32
	VelExit3D      float32
	VelExit2D      float32
}

type ZoneStats struct {
	ZoneNum   uint8
	BaseStats BaseStats
}

type Vector struct {
	X, Y, Z float32
}

// Frame is one tick of recorded player state.
type Frame struct {
	EyeAngle   Vector
	Pos        Vector
	ViewOffset float32
	Buttons    uint32
}

// HasStats reports whether the replay carried a stats section.
func (r *Replay) HasStats() bool {
	return r.OverallStats != nil
}
