package model

type BadgeType string

const (
	BadgeTypeOneOff   BadgeType = "one-off"
	BadgeTypeHabitual BadgeType = "habitual"
)

type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

type ActionType string

const (
	ActionWebhook          ActionType = "webhook"
	ActionEvidenceUpload   ActionType = "evidence-upload"
	ActionToolUsage        ActionType = "tool-usage"
	ActionCodeEntry        ActionType = "code-entry"
	ActionLessonCompletion ActionType = "lesson-completion"
	ActionReferral         ActionType = "referral"
)

type TriggerType string

const (
	TriggerCount      TriggerType = "count"
	TriggerDay        TriggerType = "day"
	TriggerWeek       TriggerType = "week"
	TriggerPercentage TriggerType = "percentage"
)

// Badge is a rewarded achievement definition together with the current
// user's progress on it. Dates are ISO calendar dates (YYYY-MM-DD).
type Badge struct {
	ID          string     `json:"id" validate:"required"`
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	DoshReward  int        `json:"doshReward" validate:"gte=0"`
	Type        BadgeType  `json:"type" validate:"required,oneof=one-off habitual"`
	Frequency   Frequency  `json:"frequency" validate:"required,oneof=none daily weekly monthly"`
	ActionType  ActionType `json:"actionType" validate:"required,oneof=webhook evidence-upload tool-usage code-entry lesson-completion referral"`

	Progress      *int   `json:"progress,omitempty" validate:"omitempty,gte=0"`
	TotalRequired *int   `json:"totalRequired,omitempty" validate:"omitempty,gte=1"`
	Deadline      string `json:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartedAt     string `json:"startedAt,omitempty" validate:"omitempty,datetime=2006-01-02"`

	Milestones      []MilestoneReward `json:"milestones,omitempty" validate:"dive"`
	MilestoneConfig *MilestoneConfig  `json:"milestoneConfig,omitempty"`

	CompletedLessons []string `json:"completedLessons,omitempty"`

	IsEarned   bool   `json:"isEarned"`
	EarnedDate string `json:"earnedDate,omitempty"`
}

// CurrentProgress returns the stored progress, zero when absent.
func (b Badge) CurrentProgress() int {
	if b.Progress == nil {
		return 0
	}
	return *b.Progress
}

// Required returns totalRequired and whether it is set.
func (b Badge) Required() (int, bool) {
	if b.TotalRequired == nil {
		return 0, false
	}
	return *b.TotalRequired, true
}

func (b Badge) Milestone(id string) (MilestoneReward, int, bool) {
	for i, m := range b.Milestones {
		if m.ID == id {
			return m, i, true
		}
	}
	return MilestoneReward{}, -1, false
}

// Clone returns a deep copy so callers can replace whole records without
// sharing slices or pointers with the stored value.
func (b Badge) Clone() Badge {
	out := b
	if b.Progress != nil {
		p := *b.Progress
		out.Progress = &p
	}
	if b.TotalRequired != nil {
		t := *b.TotalRequired
		out.TotalRequired = &t
	}
	if b.Milestones != nil {
		out.Milestones = append([]MilestoneReward(nil), b.Milestones...)
	}
	if b.MilestoneConfig != nil {
		mc := *b.MilestoneConfig
		out.MilestoneConfig = &mc
	}
	if b.CompletedLessons != nil {
		out.CompletedLessons = append([]string(nil), b.CompletedLessons...)
	}
	return out
}

type MilestoneReward struct {
	ID          string      `json:"id" validate:"required"`
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	DoshReward  int         `json:"doshReward" validate:"gte=0"`
	TriggerAt   int         `json:"triggerAt" validate:"gte=1"`
	TriggerType TriggerType `json:"triggerType" validate:"required,oneof=count day week percentage"`
	IsEarned    bool        `json:"isEarned"`
	EarnedDate  string      `json:"earnedDate,omitempty"`
}

// MilestoneConfig flags are authoritative. AutoGenerate and CustomMilestones
// are mutually exclusive.
type MilestoneConfig struct {
	Enabled          bool `json:"enabled"`
	AutoGenerate     bool `json:"autoGenerate"`
	CustomMilestones bool `json:"customMilestones"`
}

// IntPtr is a small helper for optional counters.
func IntPtr(v int) *int {
	return &v
}
