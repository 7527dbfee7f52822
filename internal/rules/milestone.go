package rules

import (
	"cmp"
	"fmt"
	"slices"

	"dosh_badges/internal/model"
)

const daysPerWeek = 7

// MilestoneUnlocked reports whether a milestone's trigger is satisfied by
// progress. Percentage triggers never unlock when totalRequired is not
// positive.
func MilestoneUnlocked(m model.MilestoneReward, progress, totalRequired int) bool {
	if progress < 0 {
		return false
	}
	switch m.TriggerType {
	case model.TriggerCount, model.TriggerDay:
		return progress >= m.TriggerAt
	case model.TriggerWeek:
		return progress >= m.TriggerAt*daysPerWeek
	case model.TriggerPercentage:
		if totalRequired <= 0 {
			return false
		}
		return progress*100 >= m.TriggerAt*totalRequired
	default:
		return false
	}
}

// MilestoneClaimable reports an unlocked milestone that has not been earned.
func MilestoneClaimable(m model.MilestoneReward, progress, totalRequired int) bool {
	return !m.IsEarned && MilestoneUnlocked(m, progress, totalRequired)
}

// SortMilestones returns a copy ordered by TriggerAt. Ties keep input order.
func SortMilestones(milestones []model.MilestoneReward) []model.MilestoneReward {
	out := slices.Clone(milestones)
	slices.SortStableFunc(out, func(a, b model.MilestoneReward) int {
		return cmp.Compare(a.TriggerAt, b.TriggerAt)
	})
	return out
}

// EvaluateMilestones sorts milestones and attaches unlock and claim flags.
func EvaluateMilestones(milestones []model.MilestoneReward, progress, totalRequired int) []model.MilestoneStatus {
	if len(milestones) == 0 {
		return nil
	}

	sorted := SortMilestones(milestones)
	out := make([]model.MilestoneStatus, len(sorted))
	for i, m := range sorted {
		unlocked := MilestoneUnlocked(m, progress, totalRequired)
		out[i] = model.MilestoneStatus{
			MilestoneReward: m,
			Label:           TriggerLabel(m),
			Unlocked:        unlocked,
			Claimable:       unlocked && !m.IsEarned,
		}
	}
	return out
}

// TriggerLabel describes when a milestone unlocks, e.g. "Day 2" or "75% complete".
func TriggerLabel(m model.MilestoneReward) string {
	switch m.TriggerType {
	case model.TriggerDay:
		return fmt.Sprintf("Day %d", m.TriggerAt)
	case model.TriggerWeek:
		if m.TriggerAt == 1 {
			return "1 Week"
		}
		return fmt.Sprintf("%d Weeks", m.TriggerAt)
	case model.TriggerCount:
		return fmt.Sprintf("%d%s completion", m.TriggerAt, ordinalSuffix(m.TriggerAt))
	case model.TriggerPercentage:
		return fmt.Sprintf("%d%% complete", m.TriggerAt)
	default:
		return fmt.Sprintf("Milestone %d", m.TriggerAt)
	}
}

func ordinalSuffix(n int) string {
	switch n {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
