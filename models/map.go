package models

// Map is the metadata the session pipeline reads. Maps, tracks and zones
// are written by the map submission service; this service only bumps their
// stats.
type Map struct {
	ID    string          `json:"id" gorm:"primaryKey"`
	Name  string          `json:"name" gorm:"uniqueIndex;not null"`
	Hash  string          `json:"hash" gorm:"not null"` // SHA-1 of the current BSP
	Type  GameType        `json:"type" gorm:"not null"`
	Stats CompletionStats `json:"stats" gorm:"embedded"`

	Tracks []MapTrack `json:"tracks,omitempty" gorm:"foreignKey:MapID"`

	Timestamps
}

// MapTrack is a route through a map. Track 0 is the main track, anything
// higher is a bonus.
type MapTrack struct {
	ID         string          `json:"id" gorm:"primaryKey"`
	MapID      string          `json:"mapID" gorm:"not null;uniqueIndex:idx_map_tracks_map_track"`
	TrackNum   int             `json:"trackNum" gorm:"not null;uniqueIndex:idx_map_tracks_map_track"`
	NumZones   int             `json:"numZones" gorm:"not null"` // includes the start zone
	IsLinear   bool            `json:"isLinear"`
	Difficulty int             `json:"difficulty" gorm:"not null;default:1"`
	Stats      CompletionStats `json:"stats" gorm:"embedded"`

	Zones []MapZone `json:"zones,omitempty" gorm:"foreignKey:TrackID"`

	Timestamps
}

func (t *MapTrack) IsBonus() bool {
	return t.TrackNum > 0
}

// MapZone is one segment of a track. Zone 0 is the start zone.
type MapZone struct {
	ID      string          `json:"id" gorm:"primaryKey"`
	TrackID string          `json:"trackID" gorm:"not null;uniqueIndex:idx_map_zones_track_zone"`
	ZoneNum int             `json:"zoneNum" gorm:"not null;uniqueIndex:idx_map_zones_track_zone"`
	Stats   CompletionStats `json:"stats" gorm:"embedded"`

	Timestamps
}
