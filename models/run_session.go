package models

import "time"

// RunSession is an attempt in progress. The unique index on UserID is what
// keeps a user to one live session.
type RunSession struct {
	ID       string `json:"id" gorm:"primaryKey"`
	UserID   string `json:"userID" gorm:"not null;uniqueIndex"`
	MapID    string `json:"mapID" gorm:"not null;index"`
	TrackNum int    `json:"trackNum"`
	ZoneNum  int    `json:"zoneNum"`

	Timestamps []RunSessionTimestamp `json:"timestamps,omitempty" gorm:"foreignKey:SessionID"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// RunSessionTimestamp is an append-only checkpoint. ID is monotonically
// increasing, so ordering by ID is ordering by arrival.
type RunSessionTimestamp struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string    `json:"sessionID" gorm:"not null;index"`
	ZoneNum   int       `json:"zoneNum" gorm:"not null"`
	Tick      int64     `json:"tick" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
