package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdForLevel_AnchorsHitExactly(t *testing.T) {
	curve := NewLevelCurve([]LevelAnchor{
		{Level: 1, Threshold: 255},
		{Level: 10, Threshold: 1452},
		{Level: 30, Threshold: 8943},
	})

	assert.Equal(t, int64(255), curve.ThresholdForLevel(1))
	assert.Equal(t, int64(1452), curve.ThresholdForLevel(10))
	assert.Equal(t, int64(8943), curve.ThresholdForLevel(30))
}

func TestThresholdForLevel_MonotonicThenFlat(t *testing.T) {
	curve := NewLevelCurve(nil)

	prev := int64(0)
	for level := curve.MinLevel(); level < curve.MaxLevel(); level++ {
		th := curve.ThresholdForLevel(level)
		assert.GreaterOrEqual(t, th, int64(1), "level %d", level)
		assert.GreaterOrEqual(t, th, prev, "thresholds must not decrease at level %d", level)
		prev = th
	}

	// At and past the final anchor the threshold stays flat.
	final := curve.ThresholdForLevel(curve.MaxLevel())
	assert.Equal(t, final, curve.ThresholdForLevel(curve.MaxLevel()+5))
	assert.Equal(t, final, curve.ThresholdForLevel(curve.MaxLevel()+100))
}

func TestThresholdForLevel_InterpolatesBetweenAnchors(t *testing.T) {
	curve := NewLevelCurve(nil)

	t5 := curve.ThresholdForLevel(5)
	assert.Greater(t, t5, int64(255))
	assert.Less(t, t5, int64(1452))

	t20 := curve.ThresholdForLevel(20)
	assert.Greater(t, t20, int64(1452))
	assert.Less(t, t20, int64(8943))
}

func TestThresholdForLevel_BelowMinimumClamps(t *testing.T) {
	curve := NewLevelCurve(nil)
	assert.Equal(t, curve.ThresholdForLevel(1), curve.ThresholdForLevel(0))
	assert.Equal(t, curve.ThresholdForLevel(1), curve.ThresholdForLevel(-3))
}

func TestCumulativeToLevel_MatchesThresholdSum(t *testing.T) {
	curve := NewLevelCurve(nil)

	var sum int64
	for level := curve.MinLevel(); level <= curve.MaxLevel(); level++ {
		sum += curve.ThresholdForLevel(level)
		assert.Equal(t, sum, curve.CumulativeToLevel(level), "level %d", level)
	}
}

func TestCumulativeToLevel_MemoizationIsStable(t *testing.T) {
	curve := NewLevelCurve(nil)

	first := curve.CumulativeToLevel(17)
	second := curve.CumulativeToLevel(17)
	assert.Equal(t, first, second)

	curve.Reset()
	assert.Equal(t, first, curve.CumulativeToLevel(17), "values must survive a cache reset")
}

func TestLevelFromTotalXP_WalksTheCurve(t *testing.T) {
	curve := NewLevelCurve(nil)

	lp := curve.LevelFromTotalXP(0)
	assert.Equal(t, 1, lp.Level)
	assert.Equal(t, int64(0), lp.XPIntoLevel)
	assert.Equal(t, int64(255), lp.XPForNextLevel)
	assert.Equal(t, int64(255), lp.XPToNextLevel)

	// Exactly one threshold advances exactly one level.
	lp = curve.LevelFromTotalXP(255)
	assert.Equal(t, 2, lp.Level)
	assert.Equal(t, int64(0), lp.XPIntoLevel)

	lp = curve.LevelFromTotalXP(254)
	assert.Equal(t, 1, lp.Level)
	assert.Equal(t, int64(254), lp.XPIntoLevel)
	assert.Equal(t, int64(1), lp.XPToNextLevel)
}

func TestLevelFromTotalXP_GarbageInputsTreatedAsZero(t *testing.T) {
	curve := NewLevelCurve(nil)

	for _, total := range []float64{-1, -1e9, math.NaN(), math.Inf(1), math.Inf(-1)} {
		lp := curve.LevelFromTotalXP(total)
		assert.Equal(t, 1, lp.Level, "total=%v", total)
		assert.Equal(t, int64(0), lp.XPIntoLevel, "total=%v", total)
	}
}

func TestLevelFromTotalXP_MaxLevelIsACeiling(t *testing.T) {
	curve := NewLevelCurve(nil)

	lp := curve.LevelFromTotalXP(1e12)
	require.Equal(t, curve.MaxLevel(), lp.Level)
	assert.Equal(t, int64(0), lp.XPForNextLevel)
	assert.Equal(t, int64(0), lp.XPToNextLevel)
}

func TestXPCapForAction_IsTwentyPercentOfThreshold(t *testing.T) {
	curve := NewLevelCurve(nil)

	for level := 1; level <= curve.MaxLevel()+2; level++ {
		th := curve.ThresholdForLevel(level)
		want := int64(math.Floor(float64(th) * 0.2))
		assert.Equal(t, want, curve.XPCapForAction(level), "level %d (threshold %d)", level, th)
	}
}
