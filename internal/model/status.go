package model

// DeadlineStatus is derived from a badge deadline and a reference instant.
// DaysUntilDeadline and DeadlineText are nil when there is no applicable
// deadline.
type DeadlineStatus struct {
	IsExpired         bool    `json:"isExpired"`
	DaysUntilDeadline *int    `json:"daysUntilDeadline"`
	IsExpiring        bool    `json:"isExpiring"`
	DeadlineText      *string `json:"deadlineText"`
}

type DeadlineTone string

const (
	ToneNone    DeadlineTone = ""
	ToneInfo    DeadlineTone = "info"
	ToneWarning DeadlineTone = "warning"
	ToneDanger  DeadlineTone = "danger"
)

type BadgeState string

const (
	StateNotStarted BadgeState = "not-started"
	StateInProgress BadgeState = "in-progress"
	StateClaimable  BadgeState = "claimable"
	StateEarned     BadgeState = "earned"
)

type MilestoneStatus struct {
	MilestoneReward
	Label     string `json:"label"`
	Unlocked  bool   `json:"unlocked"`
	Claimable bool   `json:"claimable"`
}

// BadgeStatus is the view-ready result of evaluating one badge.
type BadgeStatus struct {
	Badge             Badge             `json:"badge"`
	State             BadgeState        `json:"state"`
	Percent           *float64          `json:"percent"`
	Claimable         bool              `json:"claimable"`
	Deadline          DeadlineStatus    `json:"deadline"`
	DeadlineTone      DeadlineTone      `json:"deadlineTone,omitempty"`
	FormattedDeadline string            `json:"formattedDeadline,omitempty"`
	CanExtendDeadline bool              `json:"canExtendDeadline"`
	Milestones        []MilestoneStatus `json:"milestones,omitempty"`
}

type DashboardStats struct {
	TotalBadges       int     `json:"totalBadges"`
	EarnedBadges      int     `json:"earnedBadges"`
	ClaimableBadges   int     `json:"claimableBadges"`
	InProgressBadges  int     `json:"inProgressBadges"`
	TotalDoshEarned   int     `json:"totalDoshEarned"`
	UpcomingDeadlines []Badge `json:"upcomingDeadlines"`
	OverdueBadges     []Badge `json:"overdueBadges"`
}
