package service

import (
	"slices"
	"time"

	"dosh_badges/internal/model"
	"dosh_badges/internal/rules"
)

// The reducers below are pure: each takes the stored badge and returns its
// replacement, or an error and no change.

// startBadge stamps startedAt on first activity and resolves a rolling
// deadline from it.
func startBadge(b model.Badge, cfg *model.BadgeConfig, now time.Time) model.Badge {
	if b.StartedAt != "" {
		return b
	}
	b.StartedAt = today(now)
	if b.Deadline == "" {
		if deadline, ok := rules.EffectiveDeadline(cfg.DeadlineSettings(), b.StartedAt); ok {
			b.Deadline = deadline
		}
	}
	return b
}

// advanceProgress raises progress to target, capped at totalRequired. Progress
// never decreases and earned badges are left as they are.
func advanceProgress(b model.Badge, cfg *model.BadgeConfig, target int, now time.Time) model.Badge {
	if b.IsEarned {
		return b
	}
	if total, ok := b.Required(); ok && target > total {
		target = total
	}
	if target <= b.CurrentProgress() {
		return b
	}
	b = startBadge(b, cfg, now)
	b.Progress = model.IntPtr(target)
	return b
}

// completeAction applies a successful action. Without totalRequired a single
// success is the completion signal, otherwise it counts as one step.
func completeAction(b model.Badge, cfg *model.BadgeConfig, now time.Time) model.Badge {
	if _, ok := b.Required(); !ok {
		return advanceProgress(b, cfg, 1, now)
	}
	return advanceProgress(b, cfg, b.CurrentProgress()+1, now)
}

// fillProgress marks the whole target as done in one step.
func fillProgress(b model.Badge, cfg *model.BadgeConfig, now time.Time) model.Badge {
	total, ok := b.Required()
	if !ok {
		total = 1
	}
	return advanceProgress(b, cfg, total, now)
}

func claimBadge(b model.Badge, cfg *model.BadgeConfig, now time.Time, opts rules.Options) (model.Badge, error) {
	if b.IsEarned {
		return b, ErrAlreadyEarned
	}

	deadline := rules.EvaluateDeadline(b, cfg.DeadlineSettings(), now)
	if !rules.Claimable(b, deadline, opts) {
		if rules.Claimable(b, deadline, rules.Options{}) {
			return b, ErrDeadlineExpired
		}
		return b, ErrNotClaimable
	}

	b.IsEarned = true
	b.EarnedDate = today(now)
	return b, nil
}

func claimMilestone(b model.Badge, milestoneID string, now time.Time) (model.Badge, error) {
	m, i, ok := b.Milestone(milestoneID)
	if !ok {
		return b, ErrMilestoneNotFound
	}
	if m.IsEarned {
		return b, ErrMilestoneEarned
	}

	total, _ := b.Required()
	if !rules.MilestonesEnabled(b) || !rules.MilestoneUnlocked(m, b.CurrentProgress(), total) {
		return b, ErrMilestoneLocked
	}

	b.Milestones[i].IsEarned = true
	b.Milestones[i].EarnedDate = today(now)
	return b, nil
}

func extendDeadline(b model.Badge, cfg *model.BadgeConfig, days int) (model.Badge, error) {
	if days < 1 {
		return b, ErrInvalidExtension
	}
	if b.IsEarned {
		return b, ErrAlreadyEarned
	}
	if !rules.CanExtendDeadline(b, cfg.DeadlineSettings()) {
		return b, ErrExtensionsNotAllowed
	}

	next, ok := rules.ExtendDeadline(b.Deadline, days)
	if !ok {
		return b, ErrNoDeadline
	}
	b.Deadline = next
	return b, nil
}

// completeLesson records a required lesson and sets progress to the number of
// required lessons completed so far.
func completeLesson(b model.Badge, cfg *model.BadgeConfig, lessonID string, now time.Time) (model.Badge, error) {
	lesson, ok := cfg.Lesson()
	if !ok {
		return b, ErrWrongActionType
	}
	if b.IsEarned {
		return b, ErrAlreadyEarned
	}

	idx := slices.Index(lesson.RequiredLessonIDs, lessonID)
	if idx < 0 {
		return b, ErrLessonNotRequired
	}
	if slices.Contains(b.CompletedLessons, lessonID) {
		return b, ErrLessonCompleted
	}
	if lesson.CompletionOrder == model.CompletionSequential {
		for _, prev := range lesson.RequiredLessonIDs[:idx] {
			if !slices.Contains(b.CompletedLessons, prev) {
				return b, ErrLessonOutOfOrder
			}
		}
	}

	b = startBadge(b, cfg, now)
	b.CompletedLessons = append(b.CompletedLessons, lessonID)

	completed := 0
	for _, id := range lesson.RequiredLessonIDs {
		if slices.Contains(b.CompletedLessons, id) {
			completed++
		}
	}
	return advanceProgress(b, cfg, completed, now), nil
}

// lessonRequirements annotates the required lessons of a badge with their
// completion state. Under sequential order only the next lesson is unlocked.
func lessonRequirements(b model.Badge, lesson model.LessonConfig, catalog []model.AvailableLesson) []model.LessonRequirement {
	out := make([]model.LessonRequirement, 0, len(catalog))
	unlocked := true
	for _, l := range catalog {
		done := slices.Contains(b.CompletedLessons, l.ID)
		out = append(out, model.LessonRequirement{
			AvailableLesson: l,
			IsCompleted:     done,
			Unlocked:        done || unlocked,
		})
		if lesson.CompletionOrder == model.CompletionSequential && !done {
			unlocked = false
		}
	}
	return out
}

// mirrorReferrals copies the effective referral count into badge progress.
func mirrorReferrals(b model.Badge, cfg *model.BadgeConfig, p model.ReferralProgress, now time.Time) model.Badge {
	referral, _ := cfg.Referral()
	return advanceProgress(b, cfg, rules.EffectiveReferralCount(p, referral.RequiresFriendCompletion), now)
}
