package services

import (
	"sync"
	"testing"

	"season-reward-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCosmetics struct {
	mu      sync.Mutex
	granted map[string][]string
}

func (f *fakeCosmetics) GrantCosmetics(externalUserID string, itemIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.granted == nil {
		f.granted = map[string][]string{}
	}
	f.granted[externalUserID] = append(f.granted[externalUserID], itemIDs...)
	return nil
}

func newLedger(t *testing.T) (*RewardLedger, *ProgressStore) {
	t.Helper()
	db := newTestDB(t)
	store := NewProgressStore(db, NewLevelCurve(nil))
	return NewRewardLedger(db, store), store
}

func TestBuildRewardPayload_FoldsDescriptors(t *testing.T) {
	payload := BuildRewardPayload([]models.RewardItem{
		{Type: models.RewardItemEnergy, Amount: 500},
		{Type: models.RewardItemEnergy, Amount: 250},
		{Type: models.RewardItemStars, Amount: 10},
		{Type: models.RewardItemCosmetic, ItemID: "hat_gold"},
		{Type: models.RewardItemCosmetic, ItemID: "trail_spark"},
		{Type: "unknown", Amount: 999},
	})

	assert.Equal(t, int64(750), payload.Energy)
	assert.Equal(t, int64(10), payload.Stars)
	assert.Equal(t, []string{"hat_gold", "trail_spark"}, payload.Cosmetics)
}

func TestGrant_AppliesPayloadExactlyOnce(t *testing.T) {
	ledger, store := newLedger(t)

	req := GrantRequest{
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
		RewardKey:      "battlepass_free_tier_2",
		Kind:           models.RewardKindBattlePass,
		Payload:        models.RewardPayload{Energy: 1000, Stars: 5},
	}

	require.NoError(t, ledger.Grant(req))

	player, err := store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), player.Energy)
	assert.Equal(t, int64(5), player.StarsBalance)

	// The second attempt is a quiet no-op, not a double payout.
	err = ledger.Grant(req)
	assert.ErrorIs(t, err, ErrRewardAlreadyClaimed)

	player, err = store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), player.Energy)
	assert.Equal(t, int64(5), player.StarsBalance)
}

func TestGrant_ConcurrentCallersSingleWinner(t *testing.T) {
	ledger, store := newLedger(t)

	req := GrantRequest{
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
		RewardKey:      "leaderboard",
		Kind:           models.RewardKindLeaderboard,
		Payload:        models.RewardPayload{Energy: 1000},
	}

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.Grant(req)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrRewardAlreadyClaimed):
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, losses)

	player, err := store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), player.Energy)
}

func TestGrant_DistinctKeysAreIndependent(t *testing.T) {
	ledger, store := newLedger(t)

	base := GrantRequest{
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
		Kind:           models.RewardKindBattlePass,
		Payload:        models.RewardPayload{Energy: 100},
	}

	tier2 := base
	tier2.RewardKey = BattlePassRewardKey(TrackFree, 2)
	tier3 := base
	tier3.RewardKey = BattlePassRewardKey(TrackFree, 3)

	require.NoError(t, ledger.Grant(tier2))
	require.NoError(t, ledger.Grant(tier3))

	player, err := store.GetProgress("player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), player.Energy)
}

func TestGrant_LeaderboardKindMarksProgressRow(t *testing.T) {
	ledger, _ := newLedger(t)

	progress := models.SeasonProgress{
		ID:             "row-1",
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
	}
	require.NoError(t, ledger.DB.Create(&progress).Error)

	rank := 1
	require.NoError(t, ledger.Grant(GrantRequest{
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
		RewardKey:      LeaderboardRewardKey,
		Kind:           models.RewardKindLeaderboard,
		TierLabel:      "gold",
		FinalRank:      &rank,
		Payload:        models.RewardPayload{Stars: 50},
	}))

	var row models.SeasonProgress
	require.NoError(t, ledger.DB.Where("id = ?", "row-1").First(&row).Error)
	assert.True(t, row.LeaderboardRewardClaimed)

	var grant models.SeasonRewardGrant
	require.NoError(t, ledger.DB.Where("reward_key = ?", LeaderboardRewardKey).First(&grant).Error)
	assert.True(t, grant.Claimed)
	assert.NotNil(t, grant.ClaimedAt)
	assert.Equal(t, "gold", grant.TierLabel)
	require.NotNil(t, grant.FinalRank)
	assert.Equal(t, 1, *grant.FinalRank)
}

func TestGrant_CosmeticsRoutedToCollaborator(t *testing.T) {
	ledger, store := newLedger(t)
	cosmetics := &fakeCosmetics{}
	store.Cosmetics = cosmetics

	require.NoError(t, ledger.Grant(GrantRequest{
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
		RewardKey:      "event_build_off",
		Kind:           models.RewardKindEvent,
		Payload:        models.RewardPayload{Cosmetics: []string{"hat_gold"}},
	}))

	assert.Equal(t, []string{"hat_gold"}, cosmetics.granted["player-1"])
}

func TestIsClaimed(t *testing.T) {
	ledger, _ := newLedger(t)

	claimed, err := ledger.IsClaimed("player-1", "season-3", "leaderboard")
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, ledger.Grant(GrantRequest{
		ExternalUserID: "player-1",
		SeasonID:       "season-3",
		RewardKey:      "leaderboard",
		Kind:           models.RewardKindLeaderboard,
		Payload:        models.RewardPayload{Energy: 1},
	}))

	claimed, err = ledger.IsClaimed("player-1", "season-3", "leaderboard")
	require.NoError(t, err)
	assert.True(t, claimed)
}
