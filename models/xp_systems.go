package models

import "run-leaderboard-service/xpsystems"

// XPSystemsID is the primary key of the single params row.
const XPSystemsID = 1

// XPSystems stores the tunable XP parameters as JSON.
type XPSystems struct {
	ID     int                    `json:"-" gorm:"primaryKey;autoIncrement:false"`
	RankXP xpsystems.RankXPParams `json:"rankXP" gorm:"serializer:json;not null"`
	CosXP  xpsystems.CosXPParams  `json:"cosXP" gorm:"serializer:json;not null"`

	Timestamps
}

func (x *XPSystems) Params() xpsystems.Params {
	return xpsystems.Params{RankXP: x.RankXP, CosXP: x.CosXP}
}

// TableName pins the table to a single params row store.
func (XPSystems) TableName() string {
	return "xp_systems"
}
