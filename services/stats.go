package services

import (
	"errors"
	"fmt"

	"run-leaderboard-service/models"
	"run-leaderboard-service/xpsystems"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statIncrements builds an UPDATE set that adds stats onto the embedded
// BaseStats columns.
func statIncrements(stats models.BaseStats) map[string]any {
	set := make(map[string]any, 16)
	for col, v := range stats.Columns() {
		name := models.BaseStatsPrefix + col
		set[name] = gorm.Expr(name+" + ?", v)
	}
	return set
}

func completionIncrements(stats *models.BaseStats, unique bool) map[string]any {
	set := map[string]any{}
	if stats != nil {
		set = statIncrements(*stats)
	}
	set["completions"] = gorm.Expr("completions + ?", 1)
	if unique {
		set["unique_completions"] = gorm.Expr("unique_completions + ?", 1)
	}
	return set
}

// hasCompletedBefore reports whether the user already has a run on the
// track. Call it before the new run is written.
func hasCompletedBefore(tx *gorm.DB, userID, mapID string, trackNum int) (bool, error) {
	var n int64
	err := tx.Model(&models.Run{}).
		Where("user_id = ? AND map_id = ? AND track_num = ?", userID, mapID, trackNum).
		Count(&n).Error
	return n > 0, err
}

// applyCompletionStats bumps completion counters on the map, the track and
// every zone past the start zone, and accumulates the run's stats onto them.
// track.Zones must be loaded.
func applyCompletionStats(tx *gorm.DB, track *models.MapTrack, run *ProcessedRun, unique bool) error {
	overall := run.OverallStats

	err := tx.Model(&models.Map{}).Where("id = ?", track.MapID).
		UpdateColumns(completionIncrements(&overall, unique)).Error
	if err != nil {
		return fmt.Errorf("update map stats: %w", err)
	}

	err = tx.Model(&models.MapTrack{}).Where("id = ?", track.ID).
		UpdateColumns(completionIncrements(&overall, unique)).Error
	if err != nil {
		return fmt.Errorf("update track stats: %w", err)
	}

	zoneStats := make(map[int]*models.BaseStats, len(run.ZoneStats))
	for i := range run.ZoneStats {
		zoneStats[run.ZoneStats[i].ZoneNum] = &run.ZoneStats[i].BaseStats
	}
	for _, zone := range track.Zones {
		if zone.ZoneNum == 0 {
			continue
		}
		err := tx.Model(&models.MapZone{}).Where("id = ?", zone.ID).
			UpdateColumns(completionIncrements(zoneStats[zone.ZoneNum], unique)).Error
		if err != nil {
			return fmt.Errorf("update zone %d stats: %w", zone.ZoneNum, err)
		}
	}
	return nil
}

// applyUserStats awards cosmetic XP for the completion and updates the
// user's totals, returning the XP breakdown.
func applyUserStats(tx *gorm.DB, xp *xpsystems.System, track *models.MapTrack, run *ProcessedRun, unique bool) (xpsystems.CosXPGain, error) {
	var stats models.UserStats
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", run.UserID).
		First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = models.UserStats{UserID: run.UserID, Level: 1}
		err = tx.Create(&stats).Error
	}
	if err != nil {
		return xpsystems.CosXPGain{}, fmt.Errorf("load user stats: %w", err)
	}

	gainXP := xp.CosmeticXPForCompletion(track.Difficulty, track.IsLinear, track.IsBonus(), unique, run.ZoneNum > 0)
	gain := xp.CosmeticXPGain(stats.Level, stats.CosXP, gainXP)

	set := map[string]any{
		"cos_xp":         gorm.Expr("cos_xp + ?", gain.GainXP),
		"level":          gorm.Expr("level + ?", gain.GainLvl),
		"runs_submitted": gorm.Expr("runs_submitted + ?", 1),
		"total_jumps":    gorm.Expr("total_jumps + ?", run.OverallStats.Jumps),
		"total_strafes":  gorm.Expr("total_strafes + ?", run.OverallStats.Strafes),
	}
	if unique && run.TrackNum == 0 && run.ZoneNum == 0 {
		set["maps_completed"] = gorm.Expr("maps_completed + ?", 1)
	}
	if err := tx.Model(&models.UserStats{}).Where("user_id = ?", run.UserID).UpdateColumns(set).Error; err != nil {
		return xpsystems.CosXPGain{}, fmt.Errorf("update user stats: %w", err)
	}
	return gain, nil
}
