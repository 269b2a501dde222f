package replay

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
)

// reader is a bounds-checked cursor over an in-memory replay. Every read
// fails with ErrTruncated instead of running past the end of the buffer.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) fail(field string, err error) error {
	return &DecodeError{Field: field, Offset: r.off, Err: err}
}

func (r *reader) take(field string, n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, r.fail(field, ErrTruncated)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8(field string) (uint8, error) {
	b, err := r.take(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32(field string) (uint32, error) {
	b, err := r.take(field, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) f32(field string) (float32, error) {
	v, err := r.u32(field)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) cstring(field string) (string, error) {
	rest := r.buf[r.off:]
	limit := len(rest)
	if limit > MaxStringLength+1 {
		limit = MaxStringLength + 1
	}
	n := bytes.IndexByte(rest[:limit], 0)
	if n < 0 {
		if len(rest) > MaxStringLength {
			return "", r.fail(field, ErrStringTooLong)
		}
		return "", r.fail(field, ErrTruncated)
	}
	s := string(rest[:n])
	r.off += n + 1
	return s, nil
}

// Decode parses a complete replay file. The input is treated as untrusted:
// counts are checked against the bytes actually present before anything is
// allocated for them.
func Decode(data []byte) (*Replay, error) {
	r := &reader{buf: data}
	rep := &Replay{}

	var err error
	if rep.Magic, err = r.u32("magic"); err != nil {
		return nil, err
	}
	if rep.Magic != Magic {
		return nil, &DecodeError{Field: "magic", Offset: 0, Err: ErrBadMagic}
	}
	if rep.Version, err = r.u8("version"); err != nil {
		return nil, err
	}
	if err = r.header(&rep.Header); err != nil {
		return nil, err
	}

	hasStats, err := r.u8("hasStats")
	if err != nil {
		return nil, err
	}
	zoneCount, err := r.u8("zoneCount")
	if err != nil {
		return nil, err
	}
	if hasStats != 0 {
		if r.remaining() < baseStatsSize*(1+int(zoneCount)) {
			return nil, r.fail("stats", ErrTruncated)
		}
		overall := r.baseStats(rep.Header.TickRate)
		rep.OverallStats = &overall
		if zoneCount > 0 {
			rep.ZoneStats = make([]ZoneStats, zoneCount)
			for i := range rep.ZoneStats {
				rep.ZoneStats[i] = ZoneStats{
					ZoneNum:   uint8(i + 1),
					BaseStats: r.baseStats(rep.Header.TickRate),
				}
			}
		}
	}

	frameCount, err := r.u32("frameCount")
	if err != nil {
		return nil, err
	}
	if uint64(frameCount)*frameSize > uint64(r.remaining()) {
		return nil, r.fail("frames", ErrTruncated)
	}
	if frameCount > 0 {
		rep.Frames = make([]Frame, frameCount)
		for i := range rep.Frames {
			rep.Frames[i] = r.frame()
		}
	}

	if r.remaining() != 0 {
		return nil, r.fail("frames", ErrTrailingData)
	}
	return rep, nil
}

func (r *reader) header(h *Header) error {
	var err error
	if h.MapName, err = r.cstring("mapName"); err != nil {
		return err
	}
	if h.MapHash, err = r.cstring("mapHash"); err != nil {
		return err
	}
	if h.PlayerName, err = r.cstring("playerName"); err != nil {
		return err
	}

	off := r.off
	steamID, err := r.cstring("steamID")
	if err != nil {
		return err
	}
	if h.SteamID, err = strconv.ParseUint(steamID, 10, 64); err != nil {
		return &DecodeError{Field: "steamID", Offset: off, Err: ErrInvalidField}
	}

	if h.TickRate, err = r.f32("tickRate"); err != nil {
		return err
	}
	if h.RunFlags, err = r.u32("runFlags"); err != nil {
		return err
	}
	if h.RunDate, err = r.cstring("runDate"); err != nil {
		return err
	}
	if h.StartTick, err = r.u32("startTick"); err != nil {
		return err
	}
	if h.StopTick, err = r.u32("stopTick"); err != nil {
		return err
	}
	if h.TrackNum, err = r.u8("trackNum"); err != nil {
		return err
	}
	if h.ZoneNum, err = r.u8("zoneNum"); err != nil {
		return err
	}
	return nil
}

// baseStats and frame are only called once the caller has checked that
// enough bytes remain, so the underlying reads cannot fail.

func (r *reader) baseStats(tickRate float32) BaseStats {
	var s BaseStats
	s.Jumps, _ = r.u32("jumps")
	s.Strafes, _ = r.u32("strafes")
	s.AvgStrafeSync, _ = r.f32("avgStrafeSync")
	s.AvgStrafeSync2, _ = r.f32("avgStrafeSync2")
	enter, _ := r.u32("enterTime")
	total, _ := r.u32("totalTime")
	s.EnterTime = float64(enter) * float64(tickRate)
	s.TotalTime = float64(total) * float64(tickRate)
	s.VelMax3D, _ = r.f32("velMax3D")
	s.VelMax2D, _ = r.f32("velMax2D")
	s.VelAvg3D, _ = r.f32("velAvg3D")
	s.VelAvg2D, _ = r.f32("velAvg2D")
	s.VelEnter3D, _ = r.f32("velEnter3D")
	s.VelEnter2D, _ = r.f32("velEnter2D")
	s.VelExit3D, _ = r.f32("velExit3D")
	s.VelExit2D, _ = r.f32("velExit2D")
	return s
}

func (r *reader) frame() Frame {
	var f Frame
	f.EyeAngle.X, _ = r.f32("eyeAngle")
	f.EyeAngle.Y, _ = r.f32("eyeAngle")
	f.EyeAngle.Z, _ = r.f32("eyeAngle")
	f.Pos.X, _ = r.f32("pos")
	f.Pos.Y, _ = r.f32("pos")
	f.Pos.Z, _ = r.f32("pos")
	f.ViewOffset, _ = r.f32("viewOffset")
	f.Buttons, _ = r.u32("buttons")
	return f
}
