package rules

import (
	"testing"

	"dosh_badges/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressBadge(progress, total int) model.Badge {
	return model.Badge{
		ID:            "b",
		Name:          "Badge",
		DoshReward:    25,
		Progress:      model.IntPtr(progress),
		TotalRequired: model.IntPtr(total),
	}
}

func TestPercent(t *testing.T) {
	pct, ok := Percent(progressBadge(3, 4))
	require.True(t, ok)
	assert.InDelta(t, 75.0, pct, 0.0001)

	pct, ok = Percent(progressBadge(29, 100))
	require.True(t, ok)
	assert.Equal(t, 29.0, pct)

	pct, ok = Percent(progressBadge(9, 4))
	require.True(t, ok)
	assert.Equal(t, 100.0, pct)

	_, ok = Percent(model.Badge{Progress: model.IntPtr(1)})
	assert.False(t, ok, "undefined without totalRequired")

	_, ok = Percent(progressBadge(-1, 4))
	assert.False(t, ok, "negative progress has no percentage")
}

func TestClaimable(t *testing.T) {
	expired := model.DeadlineStatus{IsExpired: true}

	tests := []struct {
		name     string
		badge    model.Badge
		deadline model.DeadlineStatus
		opts     Options
		want     bool
	}{
		{name: "complete", badge: progressBadge(5, 5), want: true},
		{name: "one short", badge: progressBadge(4, 5)},
		{name: "earned", badge: func() model.Badge { b := progressBadge(5, 5); b.IsEarned = true; return b }()},
		{name: "expired allowed by default", badge: progressBadge(5, 5), deadline: expired, want: true},
		{name: "expired blocked by option", badge: progressBadge(5, 5), deadline: expired, opts: Options{BlockClaimAfterExpiry: true}},
		{name: "no target, signal fired", badge: model.Badge{Progress: model.IntPtr(1)}, want: true},
		{name: "no target, no signal", badge: model.Badge{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Claimable(tt.badge, tt.deadline, tt.opts))
		})
	}
}

func TestState(t *testing.T) {
	earned := progressBadge(1, 5)
	earned.IsEarned = true

	assert.Equal(t, model.StateNotStarted, State(progressBadge(0, 5)))
	assert.Equal(t, model.StateInProgress, State(progressBadge(2, 5)))
	assert.Equal(t, model.StateClaimable, State(progressBadge(5, 5)))
	assert.Equal(t, model.StateEarned, State(earned))
	assert.Equal(t, model.StateNotStarted, State(model.Badge{}))
}

func TestEvaluate(t *testing.T) {
	b := progressBadge(3, 5)
	b.Deadline = "2024-03-12"
	b.Milestones = []model.MilestoneReward{
		{ID: "1-3", TriggerType: model.TriggerCount, TriggerAt: 4},
		{ID: "1-1", TriggerType: model.TriggerCount, TriggerAt: 1, IsEarned: true},
		{ID: "1-2", TriggerType: model.TriggerCount, TriggerAt: 3},
	}
	cfg := &model.BadgeConfig{
		Action:   model.WebhookConfig{WebhookURL: "https://example.com/hook", EventType: "payment_completed"},
		Deadline: &model.DeadlineConfig{Enabled: true, Type: model.DeadlineFixed, FixedDate: "2024-03-12", WarningDays: 5, AllowExtensions: true},
	}

	status := Evaluate(b, cfg, noon, Options{})

	assert.Equal(t, model.StateInProgress, status.State)
	assert.False(t, status.Claimable)
	require.NotNil(t, status.Percent)
	assert.InDelta(t, 60.0, *status.Percent, 0.0001)
	assert.True(t, status.Deadline.IsExpiring)
	assert.Equal(t, model.ToneWarning, status.DeadlineTone)
	assert.Equal(t, "Mar 12, 2024", status.FormattedDeadline)
	assert.True(t, status.CanExtendDeadline)

	require.Len(t, status.Milestones, 3)
	assert.Equal(t, "1-1", status.Milestones[0].ID)
	assert.Equal(t, "1-2", status.Milestones[1].ID)
	assert.True(t, status.Milestones[1].Claimable)
	assert.False(t, status.Milestones[2].Unlocked)
}

func TestEvaluate_EarnedIsInert(t *testing.T) {
	b := progressBadge(2, 5)
	b.IsEarned = true
	b.EarnedDate = "2024-01-20"
	b.Deadline = "2024-02-20"

	status := Evaluate(b, nil, noon, Options{BlockClaimAfterExpiry: true})

	assert.Equal(t, model.StateEarned, status.State)
	assert.False(t, status.Claimable)
	assert.Equal(t, model.DeadlineStatus{}, status.Deadline)
	assert.Empty(t, status.FormattedDeadline)
	assert.False(t, status.CanExtendDeadline)
}

func TestEvaluate_DisabledMilestones(t *testing.T) {
	b := progressBadge(2, 3)
	b.MilestoneConfig = &model.MilestoneConfig{Enabled: false}
	b.Milestones = []model.MilestoneReward{{ID: "m", TriggerType: model.TriggerCount, TriggerAt: 1}}

	assert.Nil(t, Evaluate(b, nil, noon, Options{}).Milestones)
}

func TestClaimableBadges(t *testing.T) {
	ready := progressBadge(3, 3)
	ready.ID = "ready"
	late := progressBadge(3, 3)
	late.ID = "late"
	late.Deadline = "2024-03-01"
	pending := progressBadge(1, 3)
	pending.ID = "pending"

	badges := []model.Badge{ready, late, pending}

	assert.Equal(t, []string{"ready", "late"}, ids(ClaimableBadges(badges, nil, noon, Options{})))
	assert.Equal(t, []string{"ready"}, ids(ClaimableBadges(badges, nil, noon, Options{BlockClaimAfterExpiry: true})))
}

func TestDashboard(t *testing.T) {
	earned := progressBadge(5, 5)
	earned.ID = "earned"
	earned.IsEarned = true
	earned.DoshReward = 75
	earned.Milestones = []model.MilestoneReward{{ID: "m1", DoshReward: 5, IsEarned: true}}

	ready := progressBadge(3, 3)
	ready.ID = "ready"

	working := progressBadge(1, 3)
	working.ID = "working"
	working.Deadline = "2024-03-12"
	working.Milestones = []model.MilestoneReward{{ID: "m2", DoshReward: 10, IsEarned: true}, {ID: "m3", DoshReward: 10}}

	late := progressBadge(0, 3)
	late.ID = "late"
	late.Deadline = "2024-03-01"

	stats := Dashboard([]model.Badge{earned, ready, working, late}, map[string]*model.BadgeConfig{}, noon, Options{})

	assert.Equal(t, 4, stats.TotalBadges)
	assert.Equal(t, 1, stats.EarnedBadges)
	assert.Equal(t, 1, stats.ClaimableBadges)
	assert.Equal(t, 1, stats.InProgressBadges)
	assert.Equal(t, 90, stats.TotalDoshEarned)
	assert.Equal(t, []string{"working"}, ids(stats.UpcomingDeadlines))
	assert.Equal(t, []string{"late"}, ids(stats.OverdueBadges))
}
