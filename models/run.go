package models

// Run is a validated completion. Runs are immutable once written.
type Run struct {
	ID       string  `json:"id" gorm:"primaryKey"`
	MapID    string  `json:"mapID" gorm:"not null;index:idx_runs_user_map_track,priority:2"`
	UserID   string  `json:"userID" gorm:"not null;index:idx_runs_user_map_track,priority:1"`
	TrackNum int     `json:"trackNum" gorm:"not null;index:idx_runs_user_map_track,priority:3"`
	ZoneNum  int     `json:"zoneNum" gorm:"not null"`
	Ticks    int64   `json:"ticks" gorm:"not null"`
	TickRate float64 `json:"tickRate" gorm:"not null"`
	Time     float64 `json:"time" gorm:"not null"` // seconds, ticks × tickRate
	Flags    int64   `json:"flags" gorm:"not null;default:0"`
	File     string  `json:"file"`                 // replay object key
	Hash     string  `json:"hash" gorm:"not null"` // SHA-1 of the replay

	OverallStats BaseStats      `json:"overallStats" gorm:"embedded;embeddedPrefix:stat_"`
	ZoneStats    []RunZoneStats `json:"zoneStats,omitempty" gorm:"foreignKey:RunID"`

	Timestamps
}

type RunZoneStats struct {
	ID        uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	RunID     string    `json:"-" gorm:"not null;index"`
	ZoneNum   int       `json:"zoneNum" gorm:"not null"`
	BaseStats BaseStats `json:"baseStats" gorm:"embedded;embeddedPrefix:stat_"`
}
