package rules

import (
	"time"

	"dosh_badges/internal/model"
)

// Options toggles policy that is not fixed by the badge data itself.
type Options struct {
	// BlockClaimAfterExpiry makes an expired badge unclaimable even when its
	// progress is complete.
	BlockClaimAfterExpiry bool
}

// Percent is progress/totalRequired*100 clamped to [0, 100]. It is undefined
// when totalRequired is absent or progress is negative.
//
// Callers store min(progress, totalRequired); Percent clamps only its own
// result and never the stored value.
func Percent(b model.Badge) (float64, bool) {
	total, ok := b.Required()
	if !ok || total <= 0 {
		return 0, false
	}
	progress := b.CurrentProgress()
	if progress < 0 {
		return 0, false
	}
	pct := float64(progress*100) / float64(total)
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// complete reports whether progress reached the target. Without a target the
// action handler's completion signal is a progress of at least one.
func complete(b model.Badge) bool {
	progress := b.CurrentProgress()
	if progress < 0 {
		return false
	}
	total, ok := b.Required()
	if !ok {
		return progress >= 1
	}
	return total > 0 && progress >= total
}

// Claimable reports whether the badge can be claimed now.
func Claimable(b model.Badge, deadline model.DeadlineStatus, opts Options) bool {
	if b.IsEarned || !complete(b) {
		return false
	}
	if opts.BlockClaimAfterExpiry && deadline.IsExpired {
		return false
	}
	return true
}

// State places the badge in its lifecycle. Expiry is an overlay and does not
// change the state.
func State(b model.Badge) model.BadgeState {
	switch {
	case b.IsEarned:
		return model.StateEarned
	case b.CurrentProgress() <= 0:
		return model.StateNotStarted
	case complete(b):
		return model.StateClaimable
	default:
		return model.StateInProgress
	}
}

// Evaluate composes the deadline, milestone and completion rules into the
// view-ready status of a badge.
func Evaluate(b model.Badge, cfg *model.BadgeConfig, now time.Time, opts Options) model.BadgeStatus {
	deadlineCfg := cfg.DeadlineSettings()
	deadline := EvaluateDeadline(b, deadlineCfg, now)

	status := model.BadgeStatus{
		Badge:             b,
		State:             State(b),
		Claimable:         Claimable(b, deadline, opts),
		Deadline:          deadline,
		DeadlineTone:      Tone(deadline),
		CanExtendDeadline: b.Deadline != "" && CanExtendDeadline(b, deadlineCfg),
	}
	if !b.IsEarned {
		status.FormattedDeadline = FormatDeadline(b.Deadline)
	}
	if pct, ok := Percent(b); ok {
		status.Percent = &pct
	}

	if MilestonesEnabled(b) {
		total, _ := b.Required()
		status.Milestones = EvaluateMilestones(b.Milestones, b.CurrentProgress(), total)
	}

	return status
}

// MilestonesEnabled treats a missing config as enabled so that listed
// milestones are never silently hidden.
func MilestonesEnabled(b model.Badge) bool {
	return b.MilestoneConfig == nil || b.MilestoneConfig.Enabled
}

// ClaimableBadges returns badges ready to be claimed, in input order.
func ClaimableBadges(badges []model.Badge, configs map[string]*model.BadgeConfig, now time.Time, opts Options) []model.Badge {
	var out []model.Badge
	for _, b := range badges {
		deadline := EvaluateDeadline(b, configs[b.ID].DeadlineSettings(), now)
		if Claimable(b, deadline, opts) {
			out = append(out, b)
		}
	}
	return out
}

// Dashboard aggregates summary counters over the collection.
func Dashboard(badges []model.Badge, configs map[string]*model.BadgeConfig, now time.Time, opts Options) model.DashboardStats {
	stats := model.DashboardStats{
		TotalBadges:       len(badges),
		UpcomingDeadlines: UpcomingDeadlines(badges, DefaultUpcomingDays, now),
		OverdueBadges:     OverdueBadges(badges, now),
	}

	for _, b := range badges {
		if b.IsEarned {
			stats.EarnedBadges++
			stats.TotalDoshEarned += b.DoshReward
		}
		for _, m := range b.Milestones {
			if m.IsEarned {
				stats.TotalDoshEarned += m.DoshReward
			}
		}

		deadline := EvaluateDeadline(b, configs[b.ID].DeadlineSettings(), now)
		switch {
		case Claimable(b, deadline, opts):
			stats.ClaimableBadges++
		case State(b) == model.StateInProgress:
			stats.InProgressBadges++
		}
	}

	return stats
}
