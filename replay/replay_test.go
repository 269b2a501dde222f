package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

const testTickRate float32 = 0.01

func ticksToSeconds(ticks uint32) float64 {
	return float64(ticks) * float64(testTickRate)
}

func sampleStats(jumps uint32, enterTicks, totalTicks uint32) BaseStats {
	return BaseStats{
		Jumps:          jumps,
		Strafes:        jumps * 2,
		AvgStrafeSync:  0.75,
		AvgStrafeSync2: 0.5,
		EnterTime:      ticksToSeconds(enterTicks),
		TotalTime:      ticksToSeconds(totalTicks),
		VelMax3D:       1200.5,
		VelMax2D:       1100.25,
		VelAvg3D:       800,
		VelAvg2D:       750,
		VelEnter3D:     250,
		VelEnter2D:     240,
		VelExit3D:      900,
		VelExit2D:      880,
	}
}

func sampleReplay() *Replay {
	overall := sampleStats(12, 0, 1000)
	frames := make([]Frame, 3)
	for i := range frames {
		frames[i] = Frame{
			EyeAngle:   Vector{X: float32(i), Y: 90, Z: 0},
			Pos:        Vector{X: 1, Y: float32(i) * 2, Z: -64},
			ViewOffset: 64,
			Buttons:    uint32(1 << i),
		}
	}
	return &Replay{
		Magic:   Magic,
		Version: Version,
		Header: Header{
			MapName:    "surf_utopia",
			MapHash:    "0123456789abcdef0123456789abcdef01234567",
			PlayerName: "runner",
			SteamID:    76561198000000001,
			TickRate:   testTickRate,
			RunFlags:   0,
			RunDate:    "1760000000000",
			StartTick:  100,
			StopTick:   1100,
			TrackNum:   0,
			ZoneNum:    0,
		},
		OverallStats: &overall,
		ZoneStats: []ZoneStats{
			{ZoneNum: 1, BaseStats: sampleStats(5, 0, 400)},
			{ZoneNum: 2, BaseStats: sampleStats(7, 400, 600)},
		},
		Frames: frames,
	}
}

func mustEncode(t *testing.T, rep *Replay) []byte {
	t.Helper()
	data, err := Encode(rep)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	noStats := sampleReplay()
	noStats.OverallStats = nil
	noStats.ZoneStats = nil

	noZones := sampleReplay()
	noZones.ZoneStats = nil

	noFrames := sampleReplay()
	noFrames.Frames = nil

	tests := []struct {
		name string
		rep  *Replay
	}{
		{name: "full", rep: sampleReplay()},
		{name: "without stats", rep: noStats},
		{name: "stats without zones", rep: noZones},
		{name: "without frames", rep: noFrames},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(mustEncode(t, tt.rep))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.rep) {
				t.Fatalf("Decode(Encode(r)) = %+v, want %+v", got, tt.rep)
			}
		})
	}
}

func TestEncodeIsStable(t *testing.T) {
	t.Parallel()

	first := mustEncode(t, sampleReplay())
	decoded, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second := mustEncode(t, decoded)
	if !bytes.Equal(first, second) {
		t.Fatalf("re-encoded bytes differ: %d vs %d bytes", len(first), len(second))
	}
}

func TestDecodeLayout(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, sampleReplay())
	if got := binary.LittleEndian.Uint32(data[:4]); got != Magic {
		t.Fatalf("magic = %#x, want %#x", got, Magic)
	}
	if data[4] != Version {
		t.Fatalf("version = %d, want %d", data[4], Version)
	}
	if !bytes.HasPrefix(data[5:], []byte("surf_utopia\x00")) {
		t.Fatalf("map name not written as NUL-terminated string")
	}
	tail := data[len(data)-3*frameSize-4:]
	if got := binary.LittleEndian.Uint32(tail[:4]); got != 3 {
		t.Fatalf("frameCount = %d, want 3", got)
	}
}

func TestDecodeStatsTimesScaledByTickRate(t *testing.T) {
	t.Parallel()

	rep, err := Decode(mustEncode(t, sampleReplay()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got, want := rep.OverallStats.TotalTime, float64(1000)*float64(testTickRate); got != want {
		t.Fatalf("TotalTime = %v, want %v", got, want)
	}
	if got, want := rep.ZoneStats[1].ZoneNum, uint8(2); got != want {
		t.Fatalf("ZoneStats[1].ZoneNum = %d, want %d", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	valid := mustEncode(t, sampleReplay())

	badMagic := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badMagic, 0xDEADBEEF)

	hugeFrames := append([]byte(nil), valid[:len(valid)-3*frameSize-4]...)
	hugeFrames = binary.LittleEndian.AppendUint32(hugeFrames, 0xFFFFFFFF)

	longString := append([]byte(nil), valid[:5]...)
	longString = append(longString, bytes.Repeat([]byte("a"), MaxStringLength+10)...)
	longString = append(longString, 0)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrTruncated},
		{name: "short magic", data: valid[:3], want: ErrTruncated},
		{name: "bad magic", data: badMagic, want: ErrBadMagic},
		{name: "truncated header", data: valid[:20], want: ErrTruncated},
		{name: "truncated frames", data: valid[:len(valid)-1], want: ErrTruncated},
		{name: "frame count beyond data", data: hugeFrames, want: ErrTruncated},
		{name: "string too long", data: longString, want: ErrStringTooLong},
		{name: "trailing data", data: append(append([]byte(nil), valid...), 0), want: ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rep, err := Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}
			if rep != nil {
				t.Fatalf("Decode() replay = %+v, want nil", rep)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Decode() error type = %T, want *DecodeError", err)
			}
		})
	}
}

func TestDecodeRejectsNonNumericSteamID(t *testing.T) {
	t.Parallel()

	var w writer
	w.u32(Magic)
	w.u8(Version)
	for _, s := range []string{"map", "hash", "player", "not-a-number"} {
		if err := w.cstring("s", s); err != nil {
			t.Fatalf("cstring() error = %v", err)
		}
	}

	_, err := Decode(w.buf.Bytes())
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("Decode() error = %v, want %v", err, ErrInvalidField)
	}
}

func TestEncodeErrors(t *testing.T) {
	t.Parallel()

	nulName := sampleReplay()
	nulName.Header.MapName = "bad\x00name"

	zonesWithoutOverall := sampleReplay()
	zonesWithoutOverall.OverallStats = nil

	zeroTickRate := sampleReplay()
	zeroTickRate.Header.TickRate = 0

	tests := []struct {
		name string
		rep  *Replay
		want error
	}{
		{name: "NUL in string", rep: nulName, want: ErrInvalidField},
		{name: "zone stats without overall stats", rep: zonesWithoutOverall, want: ErrInvalidField},
		{name: "stat times with zero tick rate", rep: zeroTickRate, want: ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Encode(tt.rep); !errors.Is(err, tt.want) {
				t.Fatalf("Encode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHeaderTicks(t *testing.T) {
	t.Parallel()

	h := Header{StartTick: 500, StopTick: 100}
	if got := h.Ticks(); got != -400 {
		t.Fatalf("Ticks() = %d, want -400", got)
	}
}

func FuzzDecode(f *testing.F) {
	valid, err := Encode(sampleReplay())
	if err != nil {
		f.Fatalf("Encode() error = %v", err)
	}
	f.Add(valid)
	f.Add(valid[:len(valid)/2])
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		rep, err := Decode(data)
		if err != nil {
			return
		}
		out, err := Encode(rep)
		if err != nil {
			// Values such as a NaN tick rate decode but cannot be re-encoded.
			return
		}
		if _, err := Decode(out); err != nil {
			t.Fatalf("Decode(Encode(Decode(data))) error = %v", err)
		}
	})
}

func TestDecodeErrorMatchesErrDecode(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte{1, 2})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("errors.Is(err, ErrDecode) = false for %v", err)
	}
	if errors.Is(err, ErrBadMagic) {
		t.Fatalf("truncated input reported as bad magic: %v", err)
	}
}
