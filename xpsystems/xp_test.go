package xpsystems

import (
	"errors"
	"testing"
)

func TestRankXP(t *testing.T) {
	t.Parallel()

	s := MustDefault()
	tests := []struct {
		name        string
		rank        int
		completions int
		want        RankXPGain
	}{
		{
			name: "world record", rank: 1, completions: 1,
			want: RankXPGain{RankXP: 4000, Formula: 1000, Top10: 3000, Group: GroupGain{GroupNum: -1}},
		},
		{
			name: "second place", rank: 2, completions: 2,
			want: RankXPGain{RankXP: 3231, Formula: 981, Top10: 2250, Group: GroupGain{GroupNum: -1}},
		},
		{
			name: "first group", rank: 11, completions: 11,
			want: RankXPGain{RankXP: 1434, Formula: 834, Group: GroupGain{GroupXP: 600, GroupNum: 1}},
		},
		{
			name: "second group", rank: 21, completions: 21,
			want: RankXPGain{RankXP: 1105, Formula: 715, Group: GroupGain{GroupXP: 390, GroupNum: 2}},
		},
		{
			name: "beyond all groups", rank: 441, completions: 11,
			want: RankXPGain{RankXP: 103, Formula: 103, Group: GroupGain{GroupNum: -1}},
		},
		{
			name: "invalid rank", rank: 0, completions: 5,
			want: RankXPGain{Group: GroupGain{GroupNum: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.RankXP(tt.rank, tt.completions); got != tt.want {
				t.Fatalf("RankXP(%d, %d) = %+v, want %+v", tt.rank, tt.completions, got, tt.want)
			}
		})
	}
}

func TestRankXPDecreasesWithRank(t *testing.T) {
	t.Parallel()

	s := MustDefault()
	prev := s.RankXP(1, 1000).RankXP
	for rank := 2; rank <= 1000; rank++ {
		got := s.RankXP(rank, 1000).RankXP
		if got > prev {
			t.Fatalf("RankXP(%d) = %d, more than rank %d (%d)", rank, got, rank-1, prev)
		}
		prev = got
	}
}

func TestCosmeticXPLevels(t *testing.T) {
	t.Parallel()

	s := MustDefault()
	inLevel := []struct {
		level int
		want  int64
	}{
		{0, -1},
		{1, 21000},
		{2, 22000},
		{10, 30000},
		{11, 42000},
		{101, 1500000},
		{126, 2000000},
		{501, -1},
	}
	for _, tt := range inLevel {
		if got := s.CosmeticXPInLevel(tt.level); got != tt.want {
			t.Fatalf("CosmeticXPInLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}

	forLevel := []struct {
		level int
		want  int64
	}{
		{0, -1},
		{1, 0},
		{2, 21000},
		{3, 43000},
		{4, 66000},
		{5, 90000},
		{501, -1},
	}
	for _, tt := range forLevel {
		if got := s.CosmeticXPForLevel(tt.level); got != tt.want {
			t.Fatalf("CosmeticXPForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestCosmeticXPForCompletion(t *testing.T) {
	t.Parallel()

	s := MustDefault()
	tests := []struct {
		name                                  string
		tier                                  int
		isLinear, isBonus, isUnique, isStageIL bool
		want                                  int64
	}{
		{name: "unique linear tier 5", tier: 5, isLinear: true, isUnique: true, want: 75000},
		{name: "repeat linear tier 5", tier: 5, isLinear: true, want: 3750},
		{name: "unique staged tier 1", tier: 1, isUnique: true, want: 25000},
		{name: "repeat staged tier 1", tier: 1, want: 625},
		{name: "stage IL counts as repeat", tier: 5, isUnique: true, isStageIL: true, want: 375},
		{name: "unique bonus", tier: 9, isBonus: true, isUnique: true, want: 47500},
		{name: "repeat bonus", tier: 9, isBonus: true, want: 1188},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := s.CosmeticXPForCompletion(tt.tier, tt.isLinear, tt.isBonus, tt.isUnique, tt.isStageIL)
			if got != tt.want {
				t.Fatalf("CosmeticXPForCompletion() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCosmeticXPGain(t *testing.T) {
	t.Parallel()

	s := MustDefault()
	tests := []struct {
		name  string
		level int
		oldXP int64
		gain  int64
		want  CosXPGain
	}{
		{name: "three levels from zero", level: 1, oldXP: 0, gain: 75000, want: CosXPGain{GainLvl: 3, OldXP: 0, GainXP: 75000}},
		{name: "not enough for a level", level: 1, oldXP: 0, gain: 20999, want: CosXPGain{GainLvl: 0, OldXP: 0, GainXP: 20999}},
		{name: "exactly reaches next level", level: 2, oldXP: 21000, gain: 22000, want: CosXPGain{GainLvl: 1, OldXP: 21000, GainXP: 22000}},
		{name: "max level never advances", level: 500, oldXP: 1 << 40, gain: 1 << 40, want: CosXPGain{GainLvl: 0, OldXP: 1 << 40, GainXP: 1 << 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.CosmeticXPGain(tt.level, tt.oldXP, tt.gain); got != tt.want {
				t.Fatalf("CosmeticXPGain() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	shortTop10 := DefaultParams()
	shortTop10.RankXP.Top10.RankPercentages = []float64{1, 0.5}

	shortGroups := DefaultParams()
	shortGroups.RankXP.Groups.GroupPointPcts = []float64{0.2}

	zeroInterval := DefaultParams()
	zeroInterval.CosXP.Levels.LinearScaleInterval = 0

	zeroRepeat := DefaultParams()
	zeroRepeat.CosXP.Completions.Repeat.TierScale.Bonus = 0

	for name, p := range map[string]Params{
		"short top10":   shortTop10,
		"short groups":  shortGroups,
		"zero interval": zeroInterval,
		"zero repeat":   zeroRepeat,
	} {
		if _, err := New(p); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("New(%s) error = %v, want %v", name, err, ErrInvalidParams)
		}
	}
}
