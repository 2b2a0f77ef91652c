package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardXP_AccumulatesAndLevelsUp(t *testing.T) {
	db := newTestDB(t)
	store := NewProgressStore(db, NewLevelCurve(nil))

	prog, err := store.AwardXP("player-1", 200, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(200), prog.TotalXP)
	assert.Equal(t, 1, prog.Level)
	assert.Nil(t, prog.LastLevelUpAt)

	// 255 total crosses the level-1 threshold.
	prog, err = store.AwardXP("player-1", 55, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(255), prog.TotalXP)
	assert.Equal(t, 2, prog.Level)
	assert.NotNil(t, prog.LastLevelUpAt)
}

func TestAwardXP_ConcurrentAwardsNeverLoseXP(t *testing.T) {
	db := newTestDB(t)
	store := NewProgressStore(db, NewLevelCurve(nil))

	_, err := store.EnsurePlayer("player-1")
	require.NoError(t, err)

	const callers = 10
	const perCall = int64(100)
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.AwardXP("player-1", perCall, "test")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	prog, err := store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, callers*perCall, prog.TotalXP)

	lp := store.Curve.LevelFromTotalXP(float64(prog.TotalXP))
	assert.Equal(t, lp.Level, prog.Level, "stored level must match the final total")
}

func TestAdjustStars_UnderflowLeavesBalance(t *testing.T) {
	db := newTestDB(t)
	store := NewProgressStore(db, NewLevelCurve(nil))

	require.NoError(t, store.AdjustStars("player-1", 30))
	assert.ErrorIs(t, store.AdjustStars("player-1", -50), ErrInsufficientStars)

	prog, err := store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), prog.StarsBalance)

	require.NoError(t, store.AdjustStars("player-1", -30))
	prog, err = store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), prog.StarsBalance)
}
