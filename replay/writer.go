package replay

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *writer) cstring(field, s string) error {
	if len(s) > MaxStringLength {
		return &EncodeError{Field: field, Err: ErrStringTooLong}
	}
	if strings.IndexByte(s, 0) >= 0 {
		return &EncodeError{Field: field, Err: ErrInvalidField}
	}
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
	return nil
}

// Encode serialises rep in the layout Decode reads. A zero Magic or Version
// is written as the package default.
func Encode(rep *Replay) ([]byte, error) {
	w := &writer{}
	h := rep.Header

	magic := rep.Magic
	if magic == 0 {
		magic = Magic
	}
	version := rep.Version
	if version == 0 {
		version = Version
	}
	w.u32(magic)
	w.u8(version)

	for _, s := range []struct{ field, value string }{
		{"mapName", h.MapName},
		{"mapHash", h.MapHash},
		{"playerName", h.PlayerName},
		{"steamID", strconv.FormatUint(h.SteamID, 10)},
	} {
		if err := w.cstring(s.field, s.value); err != nil {
			return nil, err
		}
	}
	w.f32(h.TickRate)
	w.u32(h.RunFlags)
	if err := w.cstring("runDate", h.RunDate); err != nil {
		return nil, err
	}
	w.u32(h.StartTick)
	w.u32(h.StopTick)
	w.u8(h.TrackNum)
	w.u8(h.ZoneNum)

	if rep.OverallStats == nil {
		if len(rep.ZoneStats) > 0 {
			return nil, &EncodeError{Field: "zoneStats", Err: ErrInvalidField}
		}
		w.u8(0)
		w.u8(0)
	} else {
		if len(rep.ZoneStats) > math.MaxUint8 {
			return nil, &EncodeError{Field: "zoneStats", Err: ErrInvalidField}
		}
		w.u8(1)
		w.u8(uint8(len(rep.ZoneStats)))
		if err := w.baseStats(*rep.OverallStats, h.TickRate); err != nil {
			return nil, err
		}
		for _, z := range rep.ZoneStats {
			if err := w.baseStats(z.BaseStats, h.TickRate); err != nil {
				return nil, err
			}
		}
	}

	if uint64(len(rep.Frames)) > math.MaxUint32 {
		return nil, &EncodeError{Field: "frames", Err: ErrInvalidField}
	}
	w.u32(uint32(len(rep.Frames)))
	for _, f := range rep.Frames {
		w.frame(f)
	}
	return w.buf.Bytes(), nil
}

func (w *writer) baseStats(s BaseStats, tickRate float32) error {
	enter, err := secondsToTicks("enterTime", s.EnterTime, tickRate)
	if err != nil {
		return err
	}
	total, err := secondsToTicks("totalTime", s.TotalTime, tickRate)
	if err != nil {
		return err
	}
	w.u32(s.Jumps)
	w.u32(s.Strafes)
	w.f32(s.AvgStrafeSync)
	w.f32(s.AvgStrafeSync2)
	w.u32(enter)
	w.u32(total)
	for _, v := range []float32{
		s.VelMax3D, s.VelMax2D, s.VelAvg3D, s.VelAvg2D,
		s.VelEnter3D, s.VelEnter2D, s.VelExit3D, s.VelExit2D,
	} {
		w.f32(v)
	}
	return nil
}

func (w *writer) frame(f Frame) {
	w.f32(f.EyeAngle.X)
	w.f32(f.EyeAngle.Y)
	w.f32(f.EyeAngle.Z)
	w.f32(f.Pos.X)
	w.f32(f.Pos.Y)
	w.f32(f.Pos.Z)
	w.f32(f.ViewOffset)
	w.u32(f.Buttons)
}

func secondsToTicks(field string, seconds float64, tickRate float32) (uint32, error) {
	if seconds == 0 {
		return 0, nil
	}
	if !(tickRate > 0) || math.IsInf(float64(tickRate), 0) {
		return 0, &EncodeError{Field: field, Err: ErrInvalidField}
	}
	ticks := math.Round(seconds / float64(tickRate))
	if math.IsNaN(ticks) || ticks < 0 || ticks > math.MaxUint32 {
		return 0, &EncodeError{Field: field, Err: ErrInvalidField}
	}
	return uint32(ticks), nil
}
