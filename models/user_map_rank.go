package models

// LeaderboardKey scopes one ranked list.
type LeaderboardKey struct {
	MapID    string
	TrackNum int
	ZoneNum  int
	GameType GameType
	Flags    int64
}

// UserMapRank is a user's personal best on one leaderboard. Within a key,
// ranks are dense 1..N in ascending run time.
type UserMapRank struct {
	ID       string   `json:"id" gorm:"primaryKey"`
	MapID    string   `json:"mapID" gorm:"not null;uniqueIndex:idx_umr_key,priority:1;index:idx_umr_group_rank,priority:1"`
	TrackNum int      `json:"trackNum" gorm:"not null;uniqueIndex:idx_umr_key,priority:2;index:idx_umr_group_rank,priority:2"`
	ZoneNum  int      `json:"zoneNum" gorm:"not null;uniqueIndex:idx_umr_key,priority:3;index:idx_umr_group_rank,priority:3"`
	GameType GameType `json:"gameType" gorm:"not null;uniqueIndex:idx_umr_key,priority:4;index:idx_umr_group_rank,priority:4"`
	Flags    int64    `json:"flags" gorm:"not null;default:0;uniqueIndex:idx_umr_key,priority:5;index:idx_umr_group_rank,priority:5"`
	UserID   string   `json:"userID" gorm:"not null;uniqueIndex:idx_umr_key,priority:6"`
	Rank     int      `json:"rank" gorm:"not null;index:idx_umr_group_rank,priority:6"`
	RankXP   int      `json:"rankXP" gorm:"column:rank_xp;not null;default:0"`
	RunID    string   `json:"runID" gorm:"not null;uniqueIndex"`

	Run *Run `json:"run,omitempty" gorm:"foreignKey:RunID"`

	Timestamps
}

func (u *UserMapRank) Key() LeaderboardKey {
	return LeaderboardKey{
		MapID:    u.MapID,
		TrackNum: u.TrackNum,
		ZoneNum:  u.ZoneNum,
		GameType: u.GameType,
		Flags:    u.Flags,
	}
}

// LeaderboardGroup is an anchor row, one per key. Locking it serialises
// writers to the same leaderboard without touching any other.
type LeaderboardGroup struct {
	ID       uint     `gorm:"primaryKey;autoIncrement"`
	MapID    string   `gorm:"not null;uniqueIndex:idx_leaderboard_groups_key,priority:1"`
	TrackNum int      `gorm:"not null;uniqueIndex:idx_leaderboard_groups_key,priority:2"`
	ZoneNum  int      `gorm:"not null;uniqueIndex:idx_leaderboard_groups_key,priority:3"`
	GameType GameType `gorm:"not null;uniqueIndex:idx_leaderboard_groups_key,priority:4"`
	Flags    int64    `gorm:"not null;uniqueIndex:idx_leaderboard_groups_key,priority:5"`
}
