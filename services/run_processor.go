package services

import (
	"errors"
	"math"
	"strconv"
	"time"

	"run-leaderboard-service/models"
	"run-leaderboard-service/replay"
)

const (
	tickRateEpsilon = 1e-6
	// Slack between the client stopping its timer and the server reading
	// the clock on End.
	sessionLeeway = 50 * time.Millisecond
)

// RunValidationInput is everything ValidateRun looks at. Session.Timestamps
// must be in arrival order.
type RunValidationInput struct {
	Session *models.RunSession
	SteamID string // the session owner's
	Map     *models.Map
	Track   *models.MapTrack
	Replay  []byte
	Now     time.Time
	// MaxBytes caps the replay size; zero means no cap.
	MaxBytes int64
}

// ProcessedRun is a replay that passed validation, reduced to what gets
// persisted.
type ProcessedRun struct {
	Replay       *replay.Replay
	MapID        string
	UserID       string
	TrackNum     int
	ZoneNum      int
	Ticks        int64
	TickRate     float64
	Time         float64
	Flags        int64
	OverallStats models.BaseStats
	ZoneStats    []models.RunZoneStats
}

// ValidateRun checks a submitted replay against the session that produced
// it. It returns a *RunValidationError for the first failing check, in
// order: replay file, session timestamps, metadata, timing.
func ValidateRun(in RunValidationInput) (*ProcessedRun, error) {
	if len(in.Replay) == 0 {
		return nil, reject(BadReplayFile, "empty replay")
	}
	if in.MaxBytes > 0 && int64(len(in.Replay)) > in.MaxBytes {
		return nil, reject(BadReplayFile, "replay exceeds %d bytes", in.MaxBytes)
	}

	rep, err := replay.Decode(in.Replay)
	badMagic := errors.Is(err, replay.ErrBadMagic)
	if err != nil && !badMagic {
		return nil, reject(BadReplayFile, "%v", err)
	}

	var runDate time.Time
	if !badMagic {
		if !rep.HasStats() {
			return nil, reject(BadReplayFile, "replay has no stats")
		}
		if len(rep.Frames) == 0 {
			return nil, reject(BadReplayFile, "replay has no frames")
		}
		if runDate, err = parseRunDate(rep.Header.RunDate); err != nil {
			return nil, reject(BadReplayFile, "unreadable run date %q", rep.Header.RunDate)
		}
	}

	if err := validateTimestamps(in.Session, in.Track); err != nil {
		return nil, err
	}
	if badMagic {
		return nil, reject(BadMeta, "bad magic")
	}
	h := rep.Header
	ticks := h.Ticks()
	if ticks <= 0 {
		return nil, reject(BadTimestamps, "stop tick %d not after start tick %d", h.StopTick, h.StartTick)
	}

	if err := validateMeta(in, h); err != nil {
		return nil, err
	}

	if err := validateSync(in, h, runDate, ticks); err != nil {
		return nil, err
	}

	run := &ProcessedRun{
		Replay:       rep,
		MapID:        in.Map.ID,
		UserID:       in.Session.UserID,
		TrackNum:     int(h.TrackNum),
		ZoneNum:      int(h.ZoneNum),
		Ticks:        ticks,
		TickRate:     float64(h.TickRate),
		Time:         float64(ticks) * float64(h.TickRate),
		Flags:        int64(h.RunFlags),
		OverallStats: models.NewBaseStats(*rep.OverallStats),
	}
	for _, zs := range rep.ZoneStats {
		run.ZoneStats = append(run.ZoneStats, models.RunZoneStats{
			ZoneNum:   int(zs.ZoneNum),
			BaseStats: models.NewBaseStats(zs.BaseStats),
		})
	}
	return run, nil
}

// validateTimestamps checks the checkpoints against the track layout. The
// start zone never gets a checkpoint, so a full run has NumZones-1 of them,
// arriving for zones 1..n in order with strictly increasing ticks.
func validateTimestamps(session *models.RunSession, track *models.MapTrack) error {
	ts := session.Timestamps

	// Individual level runs don't checkpoint.
	if session.ZoneNum > 0 {
		if len(ts) != 0 {
			return reject(BadTimestamps, "individual level run has %d checkpoints", len(ts))
		}
		return nil
	}

	if len(ts) == 0 {
		if track.NumZones != 1 {
			return reject(BadTimestamps, "no checkpoints on a %d zone track", track.NumZones)
		}
		return nil
	}
	if len(ts) != track.NumZones-1 {
		return reject(BadTimestamps, "%d checkpoints on a %d zone track", len(ts), track.NumZones)
	}

	var prevTick int64
	for i, t := range ts {
		if t.ZoneNum != i+1 {
			return reject(BadTimestamps, "checkpoint %d is for zone %d", i, t.ZoneNum)
		}
		if t.Tick <= prevTick {
			return reject(BadTimestamps, "zone %d tick %d not after %d", t.ZoneNum, t.Tick, prevTick)
		}
		prevTick = t.Tick
	}
	return nil
}

func validateMeta(in RunValidationInput, h replay.Header) error {
	switch {
	case strconv.FormatUint(h.SteamID, 10) != in.SteamID:
		return reject(BadMeta, "replay recorded by another player")
	case h.MapHash != in.Map.Hash:
		return reject(BadMeta, "map hash mismatch")
	case h.MapName != in.Map.Name:
		return reject(BadMeta, "map name mismatch")
	case int(h.TrackNum) != in.Session.TrackNum:
		return reject(BadMeta, "replay track %d, session track %d", h.TrackNum, in.Session.TrackNum)
	case int(h.ZoneNum) != in.Session.ZoneNum:
		return reject(BadMeta, "replay zone %d, session zone %d", h.ZoneNum, in.Session.ZoneNum)
	case int(h.TrackNum) != in.Track.TrackNum || int(h.ZoneNum) >= in.Track.NumZones:
		return reject(BadMeta, "track %d zone %d not on map", h.TrackNum, h.ZoneNum)
	}
	return nil
}

func validateSync(in RunValidationInput, h replay.Header, runDate time.Time, ticks int64) error {
	if runDate.After(in.Now) {
		return reject(OutOfSync, "run date in the future")
	}

	want, ok := in.Map.Type.DefaultTickRate()
	if !ok {
		return reject(OutOfSync, "no tick rate for game type %q", in.Map.Type)
	}
	if math.Abs(float64(h.TickRate)-float64(want)) >= tickRateEpsilon {
		return reject(OutOfSync, "tick rate %v, want %v", h.TickRate, want)
	}

	// The run can't have taken longer than the session has existed.
	runTime := time.Duration(float64(ticks) * float64(h.TickRate) * float64(time.Second))
	tick := time.Duration(float64(h.TickRate) * float64(time.Second))
	elapsed := in.Now.Sub(in.Session.CreatedAt)
	if runTime > elapsed+tick+sessionLeeway {
		return reject(OutOfSync, "run time %v exceeds session time %v", runTime, elapsed)
	}
	return nil
}

// parseRunDate accepts Unix milliseconds (what the game writes) or RFC 3339.
func parseRunDate(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
