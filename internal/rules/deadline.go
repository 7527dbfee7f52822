package rules

import (
	"fmt"
	"math"
	"slices"
	"time"

	"dosh_badges/internal/model"
)

const (
	DefaultWarningDays  = 3
	DefaultUpcomingDays = 7

	DateLayout    = "2006-01-02"
	DisplayLayout = "Jan 2, 2006"

	day = 24 * time.Hour
)

// ParseDate parses an ISO calendar date as midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysUntil is the ceiling of the signed day difference between deadline and now.
func daysUntil(deadline, now time.Time) int {
	d := math.Ceil(float64(deadline.Sub(now)) / float64(day))
	// math.Ceil(-0.4) is -0, which converts to 0
	return int(d)
}

func warningDays(cfg *model.DeadlineConfig) int {
	if cfg == nil || cfg.WarningDays <= 0 {
		return DefaultWarningDays
	}
	return cfg.WarningDays
}

// EvaluateDeadline derives the deadline status of a badge at now. Earned
// badges, badges without a deadline and badges whose deadline does not parse
// all yield the empty status.
func EvaluateDeadline(b model.Badge, cfg *model.DeadlineConfig, now time.Time) model.DeadlineStatus {
	if b.IsEarned {
		return model.DeadlineStatus{}
	}
	deadline, ok := ParseDate(b.Deadline)
	if !ok {
		return model.DeadlineStatus{}
	}

	days := daysUntil(deadline, now)
	text := deadlineText(days)

	return model.DeadlineStatus{
		IsExpired:         days < 0,
		DaysUntilDeadline: &days,
		IsExpiring:        days >= 0 && days <= warningDays(cfg),
		DeadlineText:      &text,
	}
}

func deadlineText(days int) string {
	switch {
	case days == -1:
		return "1 day overdue"
	case days < -1:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

// Tone classifies a deadline status for display.
func Tone(status model.DeadlineStatus) model.DeadlineTone {
	switch {
	case status.DaysUntilDeadline == nil:
		return model.ToneNone
	case status.IsExpired:
		return model.ToneDanger
	case status.IsExpiring:
		return model.ToneWarning
	default:
		return model.ToneInfo
	}
}

// addDays shifts an ISO date by n calendar days.
func addDays(date string, n int) (string, bool) {
	t, ok := ParseDate(date)
	if !ok {
		return "", false
	}
	return t.AddDate(0, 0, n).Format(DateLayout), true
}

// RollingDeadline returns start + rollingDays.
func RollingDeadline(start string, rollingDays int) (string, bool) {
	return addDays(start, rollingDays)
}

// ExtendDeadline pushes a deadline back by extensionDays. Permission is the
// caller's concern, see CanExtendDeadline.
func ExtendDeadline(current string, extensionDays int) (string, bool) {
	return addDays(current, extensionDays)
}

func CanExtendDeadline(b model.Badge, cfg *model.DeadlineConfig) bool {
	return !b.IsEarned && cfg != nil && cfg.AllowExtensions
}

// EffectiveDeadline resolves the deadline an enabled configuration imposes on
// a badge started at startedAt.
func EffectiveDeadline(cfg *model.DeadlineConfig, startedAt string) (string, bool) {
	if cfg == nil || !cfg.Enabled {
		return "", false
	}
	switch cfg.Type {
	case model.DeadlineFixed:
		if _, ok := ParseDate(cfg.FixedDate); !ok {
			return "", false
		}
		return cfg.FixedDate, true
	case model.DeadlineRolling:
		return RollingDeadline(startedAt, cfg.RollingDays)
	default:
		return "", false
	}
}

// FormatDeadline renders an ISO date as "Mar 15, 2024". Unparseable input
// renders as the empty string.
func FormatDeadline(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.Format(DisplayLayout)
}

// UpcomingDeadlines returns unearned badges due within the next withinDays
// days, soonest first.
func UpcomingDeadlines(badges []model.Badge, withinDays int, now time.Time) []model.Badge {
	return filterByDeadline(badges, func(deadline time.Time) bool {
		days := daysUntil(deadline, now)
		return days >= 0 && days <= withinDays
	})
}

// OverdueBadges returns unearned badges whose deadline has expired, oldest
// deadline first. A badge due today is not overdue: days are compared, not
// instants, so the list agrees with isExpired.
func OverdueBadges(badges []model.Badge, now time.Time) []model.Badge {
	return filterByDeadline(badges, func(deadline time.Time) bool {
		return daysUntil(deadline, now) < 0
	})
}

func filterByDeadline(badges []model.Badge, keep func(deadline time.Time) bool) []model.Badge {
	type dated struct {
		badge    model.Badge
		deadline time.Time
	}

	var matched []dated
	for _, b := range badges {
		if b.IsEarned {
			continue
		}
		deadline, ok := ParseDate(b.Deadline)
		if !ok || !keep(deadline) {
			continue
		}
		matched = append(matched, dated{badge: b, deadline: deadline})
	}

	slices.SortStableFunc(matched, func(a, b dated) int {
		return a.deadline.Compare(b.deadline)
	})

	out := make([]model.Badge, len(matched))
	for i, m := range matched {
		out[i] = m.badge
	}
	return out
}
