package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"run-leaderboard-service/logger"
	"run-leaderboard-service/models"
	"run-leaderboard-service/utils"
	"run-leaderboard-service/xpsystems"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunSessionService struct {
	DB          *gorm.DB
	Store       utils.FileStore
	XP          XPProvider
	Leaderboard *Leaderboard
	// MaxReplayBytes rejects larger replays as BAD_REPLAY_FILE. Zero
	// disables the check.
	MaxReplayBytes int64

	log *logger.Logger
	now func() time.Time
}

func NewRunSessionService(db *gorm.DB, store utils.FileStore, xp XPProvider, log *logger.Logger) *RunSessionService {
	return &RunSessionService{
		DB:          db,
		Store:       store,
		XP:          xp,
		Leaderboard: NewLeaderboard(xp),
		log:         log.With("component", "run_session"),
		now:         time.Now,
	}
}

// XPGain is the XP part of a completed run response.
type XPGain struct {
	RankXP int                 `json:"rankXP"`
	CosXP  xpsystems.CosXPGain `json:"cosXP"`
}

// CompletedRun is returned from End. Rank is the user's leaderboard entry
// after the submission.
type CompletedRun struct {
	Run               *models.Run         `json:"run"`
	Rank              *models.UserMapRank `json:"rank,omitempty"`
	XP                XPGain              `json:"xp"`
	IsNewPersonalBest bool                `json:"isNewPersonalBest"`
	IsNewWorldRecord  bool                `json:"isNewWorldRecord"`
}

// Start opens a run session for a full-track attempt. A user holds at most
// one live session; a second Start is rejected until the first is ended or
// deleted.
func (s *RunSessionService) Start(ctx context.Context, userID, mapID string, trackNum, zoneNum int) (*models.RunSession, error) {
	db := s.DB.WithContext(ctx)

	if zoneNum != 0 {
		return nil, ErrZoneNotSupported
	}

	var track models.MapTrack
	err := db.Where("map_id = ? AND track_num = ?", mapID, trackNum).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var n int64
		if err := db.Model(&models.Map{}).Where("id = ?", mapID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrMapNotFound
		}
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, err
	}

	if live, err := s.hasSession(db, userID); err != nil {
		return nil, err
	} else if live {
		return nil, ErrActiveSessionExists
	}

	session := models.RunSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		MapID:     mapID,
		TrackNum:  trackNum,
		ZoneNum:   zoneNum,
		CreatedAt: s.now(),
	}
	if err := db.Create(&session).Error; err != nil {
		// Lost a race with a concurrent Start: the unique index on user_id
		// rejected the second row.
		if live, _ := s.hasSession(db, userID); live {
			return nil, ErrActiveSessionExists
		}
		return nil, err
	}

	s.log.Info("run session started", "session", session.ID, "user", userID, "map", mapID, "track", trackNum)
	return &session, nil
}

func (s *RunSessionService) hasSession(db *gorm.DB, userID string) (bool, error) {
	var n int64
	err := db.Model(&models.RunSession{}).Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}

// loadOwned fetches a session and checks the caller owns it.
func (s *RunSessionService) loadOwned(db *gorm.DB, userID, sessionID string, withTimestamps bool) (*models.RunSession, error) {
	var session models.RunSession
	q := db
	if withTimestamps {
		q = q.Preload("Timestamps", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}
	err := q.Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return &session, nil
}

// Checkpoint records the client reaching a zone. Ordering is only checked
// on End; an exact retry of a stored checkpoint returns the stored row.
func (s *RunSessionService) Checkpoint(ctx context.Context, userID, sessionID string, zoneNum int, tick int64) (*models.RunSessionTimestamp, error) {
	db := s.DB.WithContext(ctx)

	if zoneNum < 0 || tick < 0 {
		return nil, ErrInvalidCheckpoint
	}
	if _, err := s.loadOwned(db, userID, sessionID, false); err != nil {
		return nil, err
	}

	var existing models.RunSessionTimestamp
	err := db.Where("session_id = ? AND zone_num = ? AND tick = ?", sessionID, zoneNum, tick).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ts := models.RunSessionTimestamp{
		SessionID: sessionID,
		ZoneNum:   zoneNum,
		Tick:      tick,
		CreatedAt: s.now(),
	}
	if err := db.Create(&ts).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

// Delete aborts the caller's live session.
func (s *RunSessionService) Delete(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.RunSession
		err := tx.Where("user_id = ?", userID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveSession
		}
		if err != nil {
			return err
		}
		_, err = deleteSession(tx, session.ID)
		return err
	})
}

// deleteSession removes a session and its checkpoints, reporting whether
// the session row was still there.
func deleteSession(tx *gorm.DB, sessionID string) (bool, error) {
	if err := tx.Where("session_id = ?", sessionID).Delete(&models.RunSessionTimestamp{}).Error; err != nil {
		return false, err
	}
	res := tx.Where("id = ?", sessionID).Delete(&models.RunSession{})
	return res.RowsAffected > 0, res.Error
}

// DeleteExpired removes sessions created before cutoff and returns how many
// went.
func (s *RunSessionService) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	var ids []string
	db := s.DB.WithContext(ctx)
	if err := db.Model(&models.RunSession{}).Where("created_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		err := db.Transaction(func(tx *gorm.DB) error {
			ok, err := deleteSession(tx, id)
			if ok {
				deleted++
			}
			return err
		})
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// End validates the replay for a session and, if it passes, records the run,
// ranks it, updates stats and XP, and stores the replay, all in one
// transaction. The session is consumed whatever the outcome. steamID is the
// caller's from the auth token; when empty the stored user's is used.
func (s *RunSessionService) End(ctx context.Context, userID, steamID, sessionID string, replayData []byte) (*CompletedRun, error) {
	db := s.DB.WithContext(ctx)

	session, err := s.loadOwned(db, userID, sessionID, true)
	if err != nil {
		return nil, err
	}

	var consumed bool
	err = db.Transaction(func(tx *gorm.DB) error {
		var derr error
		consumed, derr = deleteSession(tx, session.ID)
		return derr
	})
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent End got here first.
		return nil, ErrSessionNotFound
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if steamID == "" {
		steamID = user.SteamID
	}

	var mp models.Map
	err = db.Preload("Tracks.Zones").Where("id = ?", session.MapID).First(&mp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMapNotFound
	}
	if err != nil {
		return nil, err
	}
	var track *models.MapTrack
	for i := range mp.Tracks {
		if mp.Tracks[i].TrackNum == session.TrackNum {
			track = &mp.Tracks[i]
		}
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}

	processed, err := ValidateRun(RunValidationInput{
		Session: session,
		SteamID:  steamID,
		Map:      &mp,
		Track:    track,
		Replay:   replayData,
		Now:      s.now(),
		MaxBytes: s.MaxReplayBytes,
	})
	if err != nil {
		var verr *RunValidationError
		if errors.As(err, &verr) {
			s.log.Info("run rejected", "session", sessionID, "user", userID, "code", verr.Code, "reason", verr.Reason)
		}
		return nil, err
	}

	// Once the transaction starts it runs to completion even if the client
	// goes away.
	ctx = context.WithoutCancel(ctx)
	sum := sha1.Sum(replayData)
	hash := hex.EncodeToString(sum[:])

	var result *CompletedRun
	err = transactWithRetry(ctx, s.DB, s.log, func(tx *gorm.DB) error {
		var err error
		result, err = s.submit(ctx, tx, &mp, track, processed, replayData, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("run submitted",
		"run", result.Run.ID, "user", userID, "map", mp.Name, "track", track.TrackNum,
		"ticks", processed.Ticks, "pb", result.IsNewPersonalBest, "wr", result.IsNewWorldRecord)
	return result, nil
}

func (s *RunSessionService) submit(ctx context.Context, tx *gorm.DB, mp *models.Map, track *models.MapTrack, pr *ProcessedRun, replayData []byte, hash string) (*CompletedRun, error) {
	completedBefore, err := hasCompletedBefore(tx, pr.UserID, pr.MapID, pr.TrackNum)
	if err != nil {
		return nil, err
	}
	unique := !completedBefore

	runID := uuid.NewString()
	key := utils.ReplayKey(mp.Name, runID)
	run := models.Run{
		ID:           runID,
		MapID:        pr.MapID,
		UserID:       pr.UserID,
		TrackNum:     pr.TrackNum,
		ZoneNum:      pr.ZoneNum,
		Ticks:        pr.Ticks,
		TickRate:     pr.TickRate,
		Time:         pr.Time,
		Flags:        pr.Flags,
		File:         key,
		Hash:         hash,
		OverallStats: pr.OverallStats,
		ZoneStats:    append([]models.RunZoneStats(nil), pr.ZoneStats...),
	}
	if err := tx.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	lbKey := models.LeaderboardKey{
		MapID:    pr.MapID,
		TrackNum: pr.TrackNum,
		ZoneNum:  pr.ZoneNum,
		GameType: mp.Type,
		Flags:    pr.Flags,
	}
	ranked, err := s.Leaderboard.Submit(tx, lbKey, pr.UserID, &run)
	if err != nil {
		return nil, err
	}

	if err := applyCompletionStats(tx, track, pr, unique); err != nil {
		return nil, err
	}
	cos, err := applyUserStats(tx, s.XP.System(), track, pr, unique)
	if err != nil {
		return nil, err
	}

	// Upload last so a failed upload rolls the whole submission back.
	if _, err := s.Store.Put(ctx, key, replayData); err != nil {
		return nil, fmt.Errorf("store replay: %w", err)
	}

	return &CompletedRun{
		Run:               &run,
		Rank:              ranked.Entry,
		XP:                XPGain{RankXP: ranked.RankXP, CosXP: cos},
		IsNewPersonalBest: ranked.IsPersonalBest,
		IsNewWorldRecord:  ranked.IsWorldRecord,
	}, nil
}
