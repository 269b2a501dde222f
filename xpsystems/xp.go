// Package xpsystems holds the rank XP and cosmetic XP formulas. Everything
// here is pure: a System is built once from Params and is safe for
// concurrent use.
package xpsystems

import "math"

type System struct {
	params Params

	// xpInLevels[i] is the XP needed to go from level i to i+1.
	// xpForLevels[i] is the total XP needed to reach level i.
	xpInLevels  []int64
	xpForLevels []int64
}

type RankXPGain struct {
	RankXP  int       `json:"rankXP"`
	Formula int       `json:"formula"`
	Top10   int       `json:"top10"`
	Group   GroupGain `json:"group"`
}

// GroupNum is -1 when the rank earned no group points.
type GroupGain struct {
	GroupXP  int `json:"groupXP"`
	GroupNum int `json:"groupNum"`
}

type CosXPGain struct {
	GainLvl int   `json:"gainLvl"`
	OldXP   int64 `json:"oldXP"`
	GainXP  int64 `json:"gainXP"`
}

func New(p Params) (*System, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &System{params: p}
	s.generateLevels()
	return s, nil
}

// MustDefault builds a System from DefaultParams.
func MustDefault() *System {
	s, err := New(DefaultParams())
	if err != nil {
		panic(err)
	}
	return s
}

func (s *System) Params() Params {
	return s.params
}

func (s *System) generateLevels() {
	maxLevels := s.params.CosXP.Levels.MaxLevels
	s.xpInLevels = make([]int64, maxLevels+1)
	s.xpForLevels = make([]int64, maxLevels+1)
	for i := 1; i <= maxLevels; i++ {
		s.xpInLevels[i] = s.CosmeticXPInLevel(i)
		if i > 1 {
			s.xpForLevels[i] = s.xpForLevels[i-1] + s.xpInLevels[i-1]
		}
	}
}

// RankXP returns the XP a leaderboard position is worth in a group of
// `completions` entries.
func (s *System) RankXP(rank, completions int) RankXPGain {
	gain := RankXPGain{Group: GroupGain{GroupNum: -1}}
	if rank < 1 {
		return gain
	}
	p := s.params.RankXP

	gain.Formula = int(math.Ceil(float64(p.Formula.A) / float64(rank+p.Formula.B)))
	gain.RankXP += gain.Formula

	if rank <= 10 {
		gain.Top10 = int(math.Ceil(p.Top10.RankPercentages[rank-1] * float64(p.Top10.WRPoints)))
		gain.RankXP += gain.Top10
		return gain
	}

	// Group sizes grow with the number of completions but never drop below
	// their configured minimum.
	g := p.Groups
	offset := 11.0
	for i := 0; i < g.MaxGroups; i++ {
		size := math.Max(
			g.GroupScaleFactors[i]*math.Pow(float64(completions), g.GroupExponents[i]),
			float64(g.GroupMinSizes[i]),
		)
		if float64(rank) < offset+size {
			gain.Group.GroupNum = i + 1
			gain.Group.GroupXP = int(math.Ceil(float64(p.Top10.WRPoints) * g.GroupPointPcts[i]))
			gain.RankXP += gain.Group.GroupXP
			break
		}
		offset += size
	}
	return gain
}

// CosmeticXPInLevel returns the XP needed to advance out of level, or -1
// when level is out of range.
func (s *System) CosmeticXPInLevel(level int) int64 {
	l := s.params.CosXP.Levels
	if level < 1 || level > l.MaxLevels {
		return -1
	}

	if level < l.StaticScaleStart {
		v := float64(l.StartingValue) + float64(l.LinearScaleBaseIncrease)*float64(level)*
			(l.LinearScaleIntervalMultiplier*math.Ceil(float64(level)/float64(l.LinearScaleInterval)))
		return int64(math.Round(v))
	}

	multiplier := l.StaticScaleBaseMultiplier
	if level >= l.StaticScaleStart+l.StaticScaleInterval {
		multiplier += math.Floor(float64(level-l.StaticScaleStart)/float64(l.StaticScaleInterval)) *
			l.StaticScaleIntervalMultiplier
	}
	last := float64(l.StaticScaleStart - 1)
	v := float64(l.LinearScaleBaseIncrease) * last *
		(l.LinearScaleIntervalMultiplier * math.Ceil(last/float64(l.LinearScaleInterval))) *
		multiplier
	return int64(math.Round(v))
}

// CosmeticXPForLevel returns the total XP needed to reach level, or -1 when
// level is out of range.
func (s *System) CosmeticXPForLevel(level int) int64 {
	if level < 1 || level > s.params.CosXP.Levels.MaxLevels {
		return -1
	}
	return s.xpForLevels[level]
}

func initialScale(tier int) int {
	return tier*tier - tier + 10
}

// CosmeticXPForCompletion returns the cosmetic XP awarded for finishing a
// track. Stage individual-level runs always count as repeats.
func (s *System) CosmeticXPForCompletion(tier int, isLinear, isBonus, isUnique, isStageIL bool) int64 {
	c := s.params.CosXP.Completions
	unique := c.Unique.TierScale
	repeat := c.Repeat.TierScale

	if isBonus {
		base := math.Ceil(float64(unique.Linear*initialScale(3)+unique.Linear*initialScale(4)) / 2)
		if isUnique {
			return int64(base)
		}
		return int64(math.Ceil(base / float64(repeat.Bonus)))
	}

	scale := unique.Staged
	if isLinear {
		scale = unique.Linear
	}
	base := float64(scale * initialScale(tier))

	switch {
	case isStageIL:
		return int64(math.Ceil(base / float64(repeat.Staged) / float64(repeat.Stages)))
	case isUnique:
		return int64(base)
	case isLinear:
		return int64(math.Ceil(base / float64(repeat.Linear)))
	default:
		return int64(math.Ceil(base / float64(repeat.Staged)))
	}
}

// CosmeticXPGain works out how many levels a user at currentLevel with oldXP
// total gains from gainXP more.
func (s *System) CosmeticXPGain(currentLevel int, oldXP, gainXP int64) CosXPGain {
	next := currentLevel + 1
	gained := 0
	required := s.CosmeticXPForLevel(next)
	for required > -1 && oldXP+gainXP >= required {
		gained++
		required = s.CosmeticXPForLevel(next + gained)
	}
	return CosXPGain{GainLvl: gained, OldXP: oldXP, GainXP: gainXP}
}
