package models

// User is a local snapshot of the account the auth service issued the
// token for. The session pipeline only needs the SteamID to check replay
// ownership.
type User struct {
	ID      string `json:"id" gorm:"primaryKey"`
	SteamID string `json:"steamID" gorm:"uniqueIndex;not null"`
	Alias   string `json:"alias"`

	Stats *UserStats `json:"stats,omitempty" gorm:"foreignKey:UserID"`

	Timestamps
}

// UserStats tracks per-user progression (denormalized for performance)
type UserStats struct {
	UserID string `json:"userID" gorm:"primaryKey"`

	// Cosmetic progression
	CosXP int64 `json:"cosXP" gorm:"column:cos_xp;default:0"`
	Level int   `json:"level" gorm:"default:1"`

	// Activity counters
	TotalJumps    int64 `json:"totalJumps" gorm:"default:0"`
	TotalStrafes  int64 `json:"totalStrafes" gorm:"default:0"`
	RunsSubmitted int64 `json:"runsSubmitted" gorm:"default:0"`
	MapsCompleted int64 `json:"mapsCompleted" gorm:"default:0"`

	Timestamps
}
