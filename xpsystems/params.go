package xpsystems

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("invalid xp params")

// Params is the full tunable XP configuration. It is stored as JSON, so the
// field names follow the game client's casing.
type Params struct {
	RankXP RankXPParams `json:"rankXP"`
	CosXP  CosXPParams  `json:"cosXP"`
}

type RankXPParams struct {
	Top10   Top10Params   `json:"top10"`
	Formula FormulaParams `json:"formula"`
	Groups  GroupParams   `json:"groups"`
}

type Top10Params struct {
	WRPoints        int       `json:"WRPoints"`
	RankPercentages []float64 `json:"rankPercentages"`
}

// FormulaParams drive the points every rank earns: ceil(A / (rank + B)).
type FormulaParams struct {
	A int `json:"A"`
	B int `json:"B"`
}

type GroupParams struct {
	MaxGroups         int       `json:"maxGroups"`
	GroupScaleFactors []float64 `json:"groupScaleFactors"`
	GroupExponents    []float64 `json:"groupExponents"`
	GroupMinSizes     []int     `json:"groupMinSizes"`
	GroupPointPcts    []float64 `json:"groupPointPcts"`
}

type CosXPParams struct {
	Levels      LevelParams      `json:"levels"`
	Completions CompletionParams `json:"completions"`
}

type LevelParams struct {
	MaxLevels                     int     `json:"maxLevels"`
	StartingValue                 int     `json:"startingValue"`
	LinearScaleBaseIncrease       int     `json:"linearScaleBaseIncrease"`
	LinearScaleInterval           int     `json:"linearScaleInterval"`
	LinearScaleIntervalMultiplier float64 `json:"linearScaleIntervalMultiplier"`
	StaticScaleStart              int     `json:"staticScaleStart"`
	StaticScaleBaseMultiplier     float64 `json:"staticScaleBaseMultiplier"`
	StaticScaleInterval           int     `json:"staticScaleInterval"`
	StaticScaleIntervalMultiplier float64 `json:"staticScaleIntervalMultiplier"`
}

type CompletionParams struct {
	Unique UniqueCompletionParams `json:"unique"`
	Repeat RepeatCompletionParams `json:"repeat"`
}

type UniqueCompletionParams struct {
	TierScale UniqueTierScale `json:"tierScale"`
}

type UniqueTierScale struct {
	Linear int `json:"linear"`
	Staged int `json:"staged"`
}

type RepeatCompletionParams struct {
	TierScale RepeatTierScale `json:"tierScale"`
}

// RepeatTierScale values are divisors applied to the unique reward.
type RepeatTierScale struct {
	Linear int `json:"linear"`
	Staged int `json:"staged"`
	Stages int `json:"stages"`
	Bonus  int `json:"bonus"`
}

// DefaultParams returns the values new deployments are seeded with.
func DefaultParams() Params {
	return Params{
		RankXP: RankXPParams{
			Top10: Top10Params{
				WRPoints:        3000,
				RankPercentages: []float64{1, 0.75, 0.68, 0.61, 0.57, 0.53, 0.505, 0.48, 0.455, 0.43},
			},
			Formula: FormulaParams{A: 50000, B: 49},
			Groups: GroupParams{
				MaxGroups:         4,
				GroupScaleFactors: []float64{1, 1.5, 2, 2.5},
				GroupExponents:    []float64{0.5, 0.56, 0.62, 0.68},
				GroupMinSizes:     []int{10, 45, 125, 250},
				GroupPointPcts:    []float64{0.2, 0.13, 0.07, 0.03},
			},
		},
		CosXP: CosXPParams{
			Levels: LevelParams{
				MaxLevels:                     500,
				StartingValue:                 20000,
				LinearScaleBaseIncrease:       1000,
				LinearScaleInterval:           10,
				LinearScaleIntervalMultiplier: 1.0,
				StaticScaleStart:              101,
				StaticScaleBaseMultiplier:     1.5,
				StaticScaleInterval:           25,
				StaticScaleIntervalMultiplier: 0.5,
			},
			Completions: CompletionParams{
				Unique: UniqueCompletionParams{
					TierScale: UniqueTierScale{Linear: 2500, Staged: 2500},
				},
				Repeat: RepeatCompletionParams{
					TierScale: RepeatTierScale{Linear: 20, Staged: 40, Stages: 5, Bonus: 40},
				},
			},
		},
	}
}

// Validate checks the shape constraints the formulas index and divide by.
func (p Params) Validate() error {
	r := p.RankXP
	if len(r.Top10.RankPercentages) < 10 {
		return fmt.Errorf("%w: top10 needs 10 rank percentages, got %d", ErrInvalidParams, len(r.Top10.RankPercentages))
	}
	g := r.Groups
	if g.MaxGroups < 0 ||
		len(g.GroupScaleFactors) < g.MaxGroups ||
		len(g.GroupExponents) < g.MaxGroups ||
		len(g.GroupMinSizes) < g.MaxGroups ||
		len(g.GroupPointPcts) < g.MaxGroups {
		return fmt.Errorf("%w: group arrays shorter than maxGroups (%d)", ErrInvalidParams, g.MaxGroups)
	}
	if r.Formula.B < 0 {
		return fmt.Errorf("%w: formula B must not be negative", ErrInvalidParams)
	}

	l := p.CosXP.Levels
	if l.MaxLevels < 1 {
		return fmt.Errorf("%w: maxLevels must be positive", ErrInvalidParams)
	}
	if l.LinearScaleInterval <= 0 || l.StaticScaleInterval <= 0 {
		return fmt.Errorf("%w: level scale intervals must be positive", ErrInvalidParams)
	}

	t := p.CosXP.Completions.Repeat.TierScale
	if t.Linear <= 0 || t.Staged <= 0 || t.Stages <= 0 || t.Bonus <= 0 {
		return fmt.Errorf("%w: repeat tier scales must be positive", ErrInvalidParams)
	}
	return nil
}
