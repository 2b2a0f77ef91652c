package services

import (
	"math"
	"sort"
	"sync"
)

// LevelAnchor is a calibration point: the XP threshold to advance from
// Level to Level+1. The full curve is interpolated between anchors.
type LevelAnchor struct {
	Level     int
	Threshold int64
}

// DefaultLevelAnchors calibrate the live curve. Tuned so early levels come
// fast and the curve flattens at the cap.
var DefaultLevelAnchors = []LevelAnchor{
	{Level: 1, Threshold: 255},
	{Level: 10, Threshold: 1452},
	{Level: 30, Threshold: 8943},
}

// LevelCurve maps total XP ↔ level via log-log interpolation between
// anchors. Per-level thresholds and cumulative sums are memoized because
// every progress computation asks for them.
type LevelCurve struct {
	anchors []LevelAnchor

	mu         sync.Mutex
	thresholds map[int]int64
	cumulative map[int]int64
}

// NewLevelCurve builds a curve from the given anchors (sorted copy taken).
// Passing nil uses DefaultLevelAnchors.
func NewLevelCurve(anchors []LevelAnchor) *LevelCurve {
	if len(anchors) == 0 {
		anchors = DefaultLevelAnchors
	}
	sorted := make([]LevelAnchor, len(anchors))
	copy(sorted, anchors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	c := &LevelCurve{anchors: sorted}
	c.Reset()
	return c
}

// Reset clears the memo caches. Exposed for tests.
func (c *LevelCurve) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = make(map[int]int64)
	c.cumulative = make(map[int]int64)
}

// MinLevel is the lowest level the curve is defined for.
func (c *LevelCurve) MinLevel() int { return c.anchors[0].Level }

// MaxLevel is the hard level ceiling — no leveling past it.
func (c *LevelCurve) MaxLevel() int { return c.anchors[len(c.anchors)-1].Level }

// ThresholdForLevel returns the XP needed to advance from level to level+1.
// Levels below the minimum clamp up; levels at or past the final anchor use
// the final anchor's threshold (flat extrapolation).
func (c *LevelCurve) ThresholdForLevel(level int) int64 {
	if level < c.MinLevel() {
		level = c.MinLevel()
	}
	if level >= c.MaxLevel() {
		return c.anchors[len(c.anchors)-1].Threshold
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.thresholds[level]; ok {
		return t
	}
	t := c.interpolate(level)
	c.thresholds[level] = t
	return t
}

// interpolate computes the threshold for a level strictly below MaxLevel.
// Between two anchors the curve is log-log linear:
//
//	exponent = ln(upper.T/lower.T) / ln(upper.L/lower.L)
//	threshold(L) = lower.T * (L/lower.L)^exponent
//
// rounded to the nearest integer. Callers hold c.mu.
func (c *LevelCurve) interpolate(level int) int64 {
	lower := c.anchors[0]
	upper := c.anchors[len(c.anchors)-1]
	for i := 0; i < len(c.anchors)-1; i++ {
		if c.anchors[i].Level <= level && level < c.anchors[i+1].Level {
			lower = c.anchors[i]
			upper = c.anchors[i+1]
			break
		}
	}
	if level == lower.Level {
		return lower.Threshold
	}

	exponent := math.Log(float64(upper.Threshold)/float64(lower.Threshold)) /
		math.Log(float64(upper.Level)/float64(lower.Level))
	t := int64(math.Round(float64(lower.Threshold) *
		math.Pow(float64(level)/float64(lower.Level), exponent)))
	if t < 1 {
		t = 1
	}
	return t
}

// CumulativeToLevel returns the total XP needed to have finished every level
// up to and including the given one (the sum of thresholds MinLevel..level).
func (c *LevelCurve) CumulativeToLevel(level int) int64 {
	if level < c.MinLevel() {
		level = c.MinLevel()
	}
	if level > c.MaxLevel() {
		level = c.MaxLevel()
	}

	c.mu.Lock()
	if sum, ok := c.cumulative[level]; ok {
		c.mu.Unlock()
		return sum
	}
	c.mu.Unlock()

	var sum int64
	for l := c.MinLevel(); l <= level; l++ {
		sum += c.ThresholdForLevel(l)
	}

	c.mu.Lock()
	c.cumulative[level] = sum
	c.mu.Unlock()
	return sum
}

// LevelProgress describes where a total XP amount lands on the curve.
type LevelProgress struct {
	Level          int   `json:"level"`
	XPIntoLevel    int64 `json:"xp_into_level"`
	XPForNextLevel int64 `json:"xp_for_next_level"` // 0 at max level
	XPToNextLevel  int64 `json:"xp_to_next_level"`  // 0 at max level
}

// LevelFromTotalXP walks the curve from the minimum level, consuming each
// level's threshold until the remainder no longer covers it or the ceiling
// is hit. Non-finite or negative totals are treated as zero.
func (c *LevelCurve) LevelFromTotalXP(total float64) LevelProgress {
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		total = 0
	}

	remaining := int64(total)
	level := c.MinLevel()
	for level < c.MaxLevel() {
		t := c.ThresholdForLevel(level)
		if remaining < t {
			break
		}
		remaining -= t
		level++
	}

	if level >= c.MaxLevel() {
		return LevelProgress{Level: c.MaxLevel(), XPIntoLevel: remaining}
	}
	t := c.ThresholdForLevel(level)
	return LevelProgress{
		Level:          level,
		XPIntoLevel:    remaining,
		XPForNextLevel: t,
		XPToNextLevel:  t - remaining,
	}
}

// XPCapForAction is the per-action XP ceiling at the given level: 20% of the
// XP needed for the performer's next level. Keeps long-duration actions from
// being farmed at low levels.
func (c *LevelCurve) XPCapForAction(level int) int64 {
	return c.ThresholdForLevel(level) / 5
}
