package services

import (
	"errors"
	"fmt"

	"run-leaderboard-service/models"
	"run-leaderboard-service/xpsystems"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPProvider hands out the XP formulas currently in effect.
type XPProvider interface {
	System() *xpsystems.System
}

// RankResult is the outcome of submitting a run to a leaderboard. Entry is
// the user's entry after the submission.
type RankResult struct {
	Entry          *models.UserMapRank
	IsPersonalBest bool
	IsWorldRecord  bool
	RankXP         int
	Total          int
}

type Leaderboard struct {
	XP XPProvider
}

func NewLeaderboard(xp XPProvider) *Leaderboard {
	return &Leaderboard{XP: xp}
}

func groupScope(key models.LeaderboardKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"user_map_ranks.map_id = ? AND user_map_ranks.track_num = ? AND user_map_ranks.zone_num = ? AND user_map_ranks.game_type = ? AND user_map_ranks.flags = ?",
			key.MapID, key.TrackNum, key.ZoneNum, key.GameType, key.Flags,
		)
	}
}

// lockGroup takes the row lock on the group's anchor, creating it on first
// use. Every writer to the group goes through here first, so rank shifts
// for one group never interleave while other groups proceed untouched.
func lockGroup(tx *gorm.DB, key models.LeaderboardKey) error {
	anchor := models.LeaderboardGroup{
		MapID:    key.MapID,
		TrackNum: key.TrackNum,
		ZoneNum:  key.ZoneNum,
		GameType: key.GameType,
		Flags:    key.Flags,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&anchor).Error; err != nil {
		return fmt.Errorf("create leaderboard group: %w", err)
	}

	var locked models.LeaderboardGroup
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("map_id = ? AND track_num = ? AND zone_num = ? AND game_type = ? AND flags = ?",
			key.MapID, key.TrackNum, key.ZoneNum, key.GameType, key.Flags).
		First(&locked).Error
	if err != nil {
		return fmt.Errorf("lock leaderboard group: %w", err)
	}
	return nil
}

// Submit ranks run for userID on the key's leaderboard. It must run inside
// the End transaction, and run must already be written.
//
// A first entry is inserted at (number of strictly faster entries + 1) and
// everyone at or below that rank moves down one. A personal best moving
// from rank R2 up to R1 only shifts the entries in [R1, R2). A run that is
// not a personal best changes nothing.
func (l *Leaderboard) Submit(tx *gorm.DB, key models.LeaderboardKey, userID string, run *models.Run) (*RankResult, error) {
	if err := lockGroup(tx, key); err != nil {
		return nil, err
	}

	var existing *models.UserMapRank
	var found models.UserMapRank
	err := tx.Scopes(groupScope(key)).
		Preload("Run").
		Where("user_map_ranks.user_id = ?", userID).
		First(&found).Error
	switch {
	case err == nil:
		existing = &found
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load personal best: %w", err)
	}

	if existing != nil && existing.Run != nil && existing.Run.Ticks <= run.Ticks {
		return &RankResult{Entry: existing}, nil
	}

	var faster int64
	err = tx.Model(&models.UserMapRank{}).
		Scopes(groupScope(key)).
		Joins("JOIN runs ON runs.id = user_map_ranks.run_id").
		Where("runs.ticks < ?", run.Ticks).
		Count(&faster).Error
	if err != nil {
		return nil, fmt.Errorf("count faster runs: %w", err)
	}

	var total int64
	if err := tx.Model(&models.UserMapRank{}).Scopes(groupScope(key)).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count leaderboard: %w", err)
	}
	if existing == nil {
		total++
	}

	rank := int(faster) + 1
	xp := l.XP.System()

	// Pull the affected range into memory, then write each moved entry once.
	q := tx.Scopes(groupScope(key)).Where("user_map_ranks.rank >= ?", rank)
	if existing != nil {
		q = q.Where("user_map_ranks.rank < ?", existing.Rank)
	}
	var shifted []models.UserMapRank
	if err := q.Order("user_map_ranks.rank DESC").Find(&shifted).Error; err != nil {
		return nil, fmt.Errorf("load shifted ranks: %w", err)
	}
	for _, e := range shifted {
		newRank := e.Rank + 1
		err := tx.Model(&models.UserMapRank{}).
			Where("id = ?", e.ID).
			Updates(map[string]any{
				"rank":    newRank,
				"rank_xp": xp.RankXP(newRank, int(total)).RankXP,
			}).Error
		if err != nil {
			return nil, fmt.Errorf("shift rank %d: %w", e.Rank, err)
		}
	}

	rankXP := xp.RankXP(rank, int(total)).RankXP
	var entry models.UserMapRank
	if existing == nil {
		entry = models.UserMapRank{
			ID:       uuid.NewString(),
			MapID:    key.MapID,
			TrackNum: key.TrackNum,
			ZoneNum:  key.ZoneNum,
			GameType: key.GameType,
			Flags:    key.Flags,
			UserID:   userID,
			Rank:     rank,
			RankXP:   rankXP,
			RunID:    run.ID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, fmt.Errorf("create rank: %w", err)
		}
	} else {
		entry = *existing
		err := tx.Model(&models.UserMapRank{}).
			Where("id = ?", entry.ID).
			Updates(map[string]any{
				"rank":    rank,
				"rank_xp": rankXP,
				"run_id":  run.ID,
			}).Error
		if err != nil {
			return nil, fmt.Errorf("update rank: %w", err)
		}
		entry.Rank = rank
		entry.RankXP = rankXP
		entry.RunID = run.ID
	}
	entry.Run = run

	return &RankResult{
		Entry:          &entry,
		IsPersonalBest: true,
		IsWorldRecord:  rank == 1,
		RankXP:         rankXP,
		Total:          int(total),
	}, nil
}
