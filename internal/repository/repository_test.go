package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dosh_badges/internal/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Repository {
	t.Helper()
	seed, err := LoadSeed("")
	require.NoError(t, err)
	repo, err := NewSeeded(seed)
	require.NoError(t, err)
	return repo
}

func newBadge(id string) model.Badge {
	return model.Badge{
		ID:            id,
		Name:          "Badge " + id,
		Type:          model.BadgeTypeOneOff,
		Frequency:     model.FrequencyNone,
		ActionType:    model.ActionToolUsage,
		Progress:      model.IntPtr(0),
		TotalRequired: model.IntPtr(3),
	}
}

func TestLoadSeed_Default(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)

	assert.Len(t, seed.Badges, 11)
	assert.Len(t, seed.Lessons, 10)
	assert.Len(t, seed.Referrals, 2)

	code, ok := seed.Badges[3].Config.CodeEntry()
	require.True(t, ok)
	assert.Contains(t, code.ValidCodes, "EVENT-ABC123")
}

func TestLoadSeed_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	raw := `{"badges":[{"badge":{"id":"x","name":"X","type":"one-off","frequency":"daily","actionType":"webhook","isEarned":false}}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	_, err := LoadSeed(path)
	assert.ErrorIs(t, err, model.ErrFrequencyMismatch)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRepository_ListBadgesKeepsInsertionOrder(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	badges, configs, err := repo.ListBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 11)
	assert.Equal(t, "1", badges[0].ID)
	assert.Equal(t, "11", badges[10].ID)
	assert.Contains(t, configs, "7")
	assert.NotContains(t, configs, "missing")

	require.NoError(t, repo.CreateBadge(ctx, newBadge("12"), nil))
	badges, _, err = repo.ListBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12", badges[len(badges)-1].ID)
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo := seeded(t)

	err := repo.CreateBadge(context.Background(), newBadge("1"), nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRepository_ReadsAreCopies(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	b, cfg, err := repo.GetBadge(ctx, "1")
	require.NoError(t, err)
	*b.Progress = 99
	b.Milestones[0].IsEarned = false
	cfg.Deadline.WarningDays = 30

	again, cfgAgain, err := repo.GetBadge(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, *again.Progress)
	assert.True(t, again.Milestones[0].IsEarned)
	assert.Equal(t, 5, cfgAgain.Deadline.WarningDays)
}

func TestRepository_UpdateBadge(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	updated, err := repo.UpdateBadge(ctx, "1", func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		_, ok := cfg.Webhook()
		assert.True(t, ok)
		b.Progress = model.IntPtr(4)
		return b, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, *updated.Progress)

	stored, _, err := repo.GetBadge(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 4, *stored.Progress)
}

func TestRepository_UpdateBadgeFailureLeavesState(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := repo.UpdateBadge(ctx, "1", func(b model.Badge, _ *model.BadgeConfig) (model.Badge, error) {
		b.Progress = model.IntPtr(5)
		return b, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.UpdateBadge(ctx, "1", func(b model.Badge, _ *model.BadgeConfig) (model.Badge, error) {
		b.ID = "other"
		return b, nil
	})
	assert.Error(t, err)

	stored, _, err := repo.GetBadge(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, *stored.Progress)

	_, err = repo.UpdateBadge(ctx, "missing", func(b model.Badge, _ *model.BadgeConfig) (model.Badge, error) {
		return b, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_TransactionRollsBack(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *Tx) error {
		require.NoError(t, tx.DeleteBadge("2"))
		require.NoError(t, tx.CreateBadge(newBadge("13"), nil))
		return errors.New("abort")
	})
	require.Error(t, err)

	_, _, err = repo.GetBadge(ctx, "2")
	assert.NoError(t, err)
	_, _, err = repo.GetBadge(ctx, "13")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_DeleteBadge(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	require.NoError(t, repo.DeleteBadge(ctx, "2"))
	_, _, err := repo.GetBadge(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)

	badges, _, err := repo.ListBadges(ctx)
	require.NoError(t, err)
	assert.Len(t, badges, 10)

	assert.ErrorIs(t, repo.DeleteBadge(ctx, "2"), ErrNotFound)
}

func TestRepository_ReplaceBadge(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	b, _, err := repo.GetBadge(ctx, "6")
	require.NoError(t, err)
	b.Name = "Community Voice II"
	cfg := &model.BadgeConfig{Action: model.CodeEntryConfig{CodeLength: 4, ValidCodes: []string{"ABCD"}}}

	require.NoError(t, repo.ReplaceBadge(ctx, b, cfg))

	stored, storedCfg, err := repo.GetBadge(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, "Community Voice II", stored.Name)
	code, ok := storedCfg.CodeEntry()
	require.True(t, ok)
	assert.Equal(t, []string{"ABCD"}, code.ValidCodes)
}

func TestRepository_UpdateReferralProgress(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	p, b, err := repo.UpdateReferralProgress(ctx, "new-user", "10",
		func(p model.ReferralProgress, b model.Badge, _ *model.BadgeConfig) (model.ReferralProgress, model.Badge, error) {
			assert.Empty(t, p.Referrals)
			p.Referrals = append(p.Referrals, model.ReferralRecord{ID: "r1"})
			p.TotalReferrals = 1
			b.Progress = model.IntPtr(2)
			return p, b, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "new-user", p.UserID)
	assert.Equal(t, 2, *b.Progress)

	stored, err := repo.GetReferralProgress(ctx, "new-user", "10")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalReferrals)

	seededProgress, err := repo.GetReferralProgress(ctx, "current-user", "11")
	require.NoError(t, err)
	assert.Equal(t, 2, seededProgress.TotalReferrals)

	_, err = repo.GetReferralProgress(ctx, "nobody", "10")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Lessons(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	all, err := repo.ListLessons(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	picked, err := repo.LessonsByID(ctx, []string{"lesson-credit-repair", "lesson-budget-101"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "Credit Repair and Recovery", picked[0].Name)

	_, err = repo.LessonsByID(ctx, []string{"lesson-unknown"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CanceledContext(t *testing.T) {
	repo := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.ListBadges(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.DeleteBadge(ctx, "1"), context.Canceled)
}
