package models

import "run-leaderboard-service/replay"

// BaseStats mirrors the replay stats block. On a run it holds that run's
// values; on maps, tracks and zones it holds running totals.
type BaseStats struct {
	Jumps          int64   `json:"jumps" gorm:"column:jumps;default:0"`
	Strafes        int64   `json:"strafes" gorm:"column:strafes;default:0"`
	AvgStrafeSync  float64 `json:"avgStrafeSync" gorm:"column:avg_strafe_sync;default:0"`
	AvgStrafeSync2 float64 `json:"avgStrafeSync2" gorm:"column:avg_strafe_sync2;default:0"`
	EnterTime      float64 `json:"enterTime" gorm:"column:enter_time;default:0"`
	TotalTime      float64 `json:"totalTime" gorm:"column:total_time;default:0"`
	VelMax3D       float64 `json:"velMax3D" gorm:"column:vel_max_3d;default:0"`
	VelMax2D       float64 `json:"velMax2D" gorm:"column:vel_max_2d;default:0"`
	VelAvg3D       float64 `json:"velAvg3D" gorm:"column:vel_avg_3d;default:0"`
	VelAvg2D       float64 `json:"velAvg2D" gorm:"column:vel_avg_2d;default:0"`
	VelEnter3D     float64 `json:"velEnter3D" gorm:"column:vel_enter_3d;default:0"`
	VelEnter2D     float64 `json:"velEnter2D" gorm:"column:vel_enter_2d;default:0"`
	VelExit3D      float64 `json:"velExit3D" gorm:"column:vel_exit_3d;default:0"`
	VelExit2D      float64 `json:"velExit2D" gorm:"column:vel_exit_2d;default:0"`
}

// BaseStatsPrefix is the column prefix BaseStats gets when embedded.
const BaseStatsPrefix = "stat_"

func NewBaseStats(s replay.BaseStats) BaseStats {
	return BaseStats{
		Jumps:          int64(s.Jumps),
		Strafes:        int64(s.Strafes),
		AvgStrafeSync:  float64(s.AvgStrafeSync),
		AvgStrafeSync2: float64(s.AvgStrafeSync2),
		EnterTime:      s.EnterTime,
		TotalTime:      s.TotalTime,
		VelMax3D:       float64(s.VelMax3D),
		VelMax2D:       float64(s.VelMax2D),
		VelAvg3D:       float64(s.VelAvg3D),
		VelAvg2D:       float64(s.VelAvg2D),
		VelEnter3D:     float64(s.VelEnter3D),
		VelEnter2D:     float64(s.VelEnter2D),
		VelExit3D:      float64(s.VelExit3D),
		VelExit2D:      float64(s.VelExit2D),
	}
}

// Columns maps each unprefixed column name to its value.
func (b BaseStats) Columns() map[string]any {
	return map[string]any{
		"jumps":            b.Jumps,
		"strafes":          b.Strafes,
		"avg_strafe_sync":  b.AvgStrafeSync,
		"avg_strafe_sync2": b.AvgStrafeSync2,
		"enter_time":       b.EnterTime,
		"total_time":       b.TotalTime,
		"vel_max_3d":       b.VelMax3D,
		"vel_max_2d":       b.VelMax2D,
		"vel_avg_3d":       b.VelAvg3D,
		"vel_avg_2d":       b.VelAvg2D,
		"vel_enter_3d":     b.VelEnter3D,
		"vel_enter_2d":     b.VelEnter2D,
		"vel_exit_3d":      b.VelExit3D,
		"vel_exit_2d":      b.VelExit2D,
	}
}

// CompletionStats is the aggregate kept on maps, tracks and zones.
type CompletionStats struct {
	Completions       int64     `json:"completions" gorm:"column:completions;default:0"`
	UniqueCompletions int64     `json:"uniqueCompletions" gorm:"column:unique_completions;default:0"`
	BaseStats         BaseStats `json:"baseStats" gorm:"embedded;embeddedPrefix:stat_"`
}
