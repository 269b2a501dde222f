package services

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"run-leaderboard-service/database"
	"run-leaderboard-service/logger"
	"run-leaderboard-service/models"
	"run-leaderboard-service/replay"
	"run-leaderboard-service/utils"

	"gorm.io/gorm"
)

const (
	testMapID    = "map-1"
	testMapName  = "surf_utopia"
	testMapHash  = "5f2a9b0c1d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a"
	testTickRate = float32(0.015)
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db    *gorm.DB
	svc   *RunSessionService
	xp    *XPSystemsService
	store *utils.LocalStore
	mp    models.Map
	track models.MapTrack
	now   time.Time
	users map[string]uint64
}

// newFixture seeds a SURF map whose main track has numZones zones (start
// zone included) plus a single-zone bonus track.
func newFixture(t *testing.T, numZones int) *fixture {
	t.Helper()
	db := newTestDB(t)

	store, err := utils.NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	xp := NewXPSystemsService(db, logger.Discard())
	if err := xp.Init(context.Background()); err != nil {
		t.Fatalf("xp.Init() error = %v", err)
	}

	f := &fixture{
		db:    db,
		xp:    xp,
		store: store,
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		users: map[string]uint64{},
	}
	f.svc = NewRunSessionService(db, store, xp, logger.Discard())
	f.svc.now = func() time.Time { return f.now }

	f.mp = models.Map{ID: testMapID, Name: testMapName, Hash: testMapHash, Type: models.GameTypeSurf}
	if err := db.Create(&f.mp).Error; err != nil {
		t.Fatalf("create map: %v", err)
	}
	f.track = f.addTrack(t, 0, numZones)
	f.addTrack(t, 1, 1)
	return f
}

func (f *fixture) addTrack(t *testing.T, trackNum, numZones int) models.MapTrack {
	t.Helper()
	track := models.MapTrack{
		ID:         fmt.Sprintf("track-%d", trackNum),
		MapID:      f.mp.ID,
		TrackNum:   trackNum,
		NumZones:   numZones,
		IsLinear:   numZones <= 2,
		Difficulty: 5,
	}
	for z := 0; z < numZones; z++ {
		track.Zones = append(track.Zones, models.MapZone{
			ID:      fmt.Sprintf("zone-%d-%d", trackNum, z),
			ZoneNum: z,
		})
	}
	if err := f.db.Create(&track).Error; err != nil {
		t.Fatalf("create track: %v", err)
	}
	return track
}

func (f *fixture) addUser(t *testing.T, id string) {
	t.Helper()
	steamID := uint64(76561198000000000) + uint64(len(f.users)+1)
	f.users[id] = steamID
	user := models.User{ID: id, SteamID: strconv.FormatUint(steamID, 10), Alias: id}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
}

// replayFor builds a replay that passes validation for userID's session on
// the main track, running for the given number of ticks.
func (f *fixture) replayFor(userID string, ticks uint32) *replay.Replay {
	overall := replay.BaseStats{Jumps: 10, Strafes: 20, AvgStrafeSync: 0.8, TotalTime: float64(ticks) * float64(testTickRate)}
	rep := &replay.Replay{
		Magic:   replay.Magic,
		Version: replay.Version,
		Header: replay.Header{
			MapName:    f.mp.Name,
			MapHash:    f.mp.Hash,
			PlayerName: userID,
			SteamID:    f.users[userID],
			TickRate:   testTickRate,
			RunDate:    strconv.FormatInt(f.now.Add(-time.Second).UnixMilli(), 10),
			StartTick:  100,
			StopTick:   100 + ticks,
		},
		OverallStats: &overall,
		Frames:       make([]replay.Frame, 4),
	}
	for z := 1; z < f.track.NumZones; z++ {
		rep.ZoneStats = append(rep.ZoneStats, replay.ZoneStats{
			ZoneNum:   uint8(z),
			BaseStats: replay.BaseStats{Jumps: uint32(z), Strafes: uint32(2 * z)},
		})
	}
	return rep
}

func encodeReplay(t *testing.T, rep *replay.Replay) []byte {
	t.Helper()
	data, err := replay.Encode(rep)
	if err != nil {
		t.Fatalf("replay.Encode() error = %v", err)
	}
	return data
}

// startWithCheckpoints starts a main-track session for userID and records a
// checkpoint for every zone past the start.
func (f *fixture) startWithCheckpoints(t *testing.T, userID string) *models.RunSession {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.Start(ctx, userID, f.mp.ID, 0, 0)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for z := 1; z < f.track.NumZones; z++ {
		if _, err := f.svc.Checkpoint(ctx, userID, session.ID, z, int64(z*10)); err != nil {
			t.Fatalf("Checkpoint(%d) error = %v", z, err)
		}
	}
	return session
}

// complete runs a full start, checkpoint and end cycle.
func (f *fixture) complete(t *testing.T, userID string, ticks uint32) *CompletedRun {
	t.Helper()
	session := f.startWithCheckpoints(t, userID)
	f.now = f.now.Add(time.Duration(float64(ticks)*float64(testTickRate)*float64(time.Second)) + time.Second)

	res, err := f.svc.End(context.Background(), userID, strconv.FormatUint(f.users[userID], 10), session.ID, encodeReplay(t, f.replayFor(userID, ticks)))
	if err != nil {
		t.Fatalf("End(%s, %d ticks) error = %v", userID, ticks, err)
	}
	return res
}

// assertContiguous checks a group's ranks are exactly 1..N in ascending
// run ticks.
func assertContiguous(t *testing.T, db *gorm.DB, key models.LeaderboardKey) []models.UserMapRank {
	t.Helper()
	var entries []models.UserMapRank
	err := db.Scopes(groupScope(key)).Preload("Run").Order("rank ASC").Find(&entries).Error
	if err != nil {
		t.Fatalf("load ranks: %v", err)
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("entry %d has rank %d, want %d (ranks must be contiguous)", i, e.Rank, i+1)
		}
		if i > 0 && e.Run.Ticks < entries[i-1].Run.Ticks {
			t.Fatalf("rank %d (%d ticks) faster than rank %d (%d ticks)", e.Rank, e.Run.Ticks, entries[i-1].Rank, entries[i-1].Run.Ticks)
		}
	}
	return entries
}
