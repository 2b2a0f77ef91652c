package services

import "math"

// Base XP per construction tier (index 0 = tier 1). Tunable via content later.
var defaultTierBaseXP = []float64{6, 10, 16, 26, 42}

const (
	levelBonusStep = 0.05
	qualityMin     = 0.8
	qualityMax     = 1.15
)

// ActionReward is the outcome of a single bounded reward computation. RawXP
// and Cap are returned alongside AppliedXP for observability.
type ActionReward struct {
	RawXP     int64 `json:"raw_xp"`
	AppliedXP int64 `json:"applied_xp"`
	Cap       int64 `json:"cap"`
}

// ActionRewardCalculator converts a timed action (a construction job) into a
// bounded XP reward. The cap depends on the performer's level via the curve.
type ActionRewardCalculator struct {
	Curve      *LevelCurve
	TierBaseXP []float64
}

func NewActionRewardCalculator(curve *LevelCurve) *ActionRewardCalculator {
	return &ActionRewardCalculator{Curve: curve, TierBaseXP: defaultTierBaseXP}
}

// Calculate computes the XP for one action:
//
//	raw = base[tier] * sqrt(max(1, minutes)) * (1 + max(0, levelBonus)*0.05) * clamp(quality, 0.8, 1.15)
//
// applied is raw rounded, clamped to 20% of the XP needed for the
// performer's next level. A zero cap falls back to the raw value.
func (c *ActionRewardCalculator) Calculate(tier int, durationMinutes float64, levelBonus float64, performerLevel int, quality float64) ActionReward {
	base := c.tierBase(tier)

	minutes := math.Max(1, durationMinutes)
	bonus := 1 + math.Max(0, levelBonus)*levelBonusStep
	q := math.Min(math.Max(quality, qualityMin), qualityMax)

	raw := base * math.Sqrt(minutes) * bonus * q
	rounded := int64(math.Round(raw))

	cap := c.Curve.XPCapForAction(performerLevel)
	applied := rounded
	if cap > 0 && applied > cap {
		applied = cap
	}

	return ActionReward{RawXP: rounded, AppliedXP: applied, Cap: cap}
}

func (c *ActionRewardCalculator) tierBase(tier int) float64 {
	bases := c.TierBaseXP
	if len(bases) == 0 {
		bases = defaultTierBaseXP
	}
	if tier < 1 {
		tier = 1
	}
	if tier > len(bases) {
		tier = len(bases)
	}
	return bases[tier-1]
}
