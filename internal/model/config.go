package model

import (
	"fmt"
	"maps"

	"github.com/goccy/go-json"
)

// ActionConfig is the per-action-type configuration. Exactly one concrete
// variant exists per ActionType.
type ActionConfig interface {
	Action() ActionType
}

type WebhookConfig struct {
	WebhookURL   string         `json:"webhookUrl" validate:"required,url"`
	EventType    string         `json:"eventType" validate:"required"`
	RequiredData map[string]any `json:"requiredData,omitempty"`
}

func (WebhookConfig) Action() ActionType { return ActionWebhook }

type EvidenceConfig struct {
	Topic          string `json:"topic" validate:"required"`
	AIPrompt       string `json:"aiPrompt" validate:"required"`
	RequiredLength int    `json:"requiredLength,omitempty" validate:"gte=0"`
}

func (EvidenceConfig) Action() ActionType { return ActionEvidenceUpload }

type ToolType string

const (
	ToolBudgetingCalculator ToolType = "budgeting-calculator"
	ToolSavingsTracker      ToolType = "savings-tracker"
	ToolExpenseAnalyzer     ToolType = "expense-analyzer"
)

type ToolUsageConfig struct {
	ToolName   string   `json:"toolName" validate:"required"`
	UsageCount int      `json:"usageCount" validate:"gte=1"`
	ToolType   ToolType `json:"toolType" validate:"required,oneof=budgeting-calculator savings-tracker expense-analyzer"`
}

func (ToolUsageConfig) Action() ActionType { return ActionToolUsage }

type CodeEntryConfig struct {
	CodeLength  int      `json:"codeLength" validate:"gte=1"`
	CodePattern string   `json:"codePattern,omitempty"`
	ValidCodes  []string `json:"validCodes,omitempty"`
}

func (CodeEntryConfig) Action() ActionType { return ActionCodeEntry }

type CompletionOrder string

const (
	CompletionAny        CompletionOrder = "any"
	CompletionSequential CompletionOrder = "sequential"
)

type LessonConfig struct {
	RequiredLessonIDs []string        `json:"requiredLessonIds" validate:"required,min=1,dive,required"`
	CompletionOrder   CompletionOrder `json:"completionOrder,omitempty" validate:"omitempty,oneof=any sequential"`
	Category          string          `json:"category,omitempty"`
}

func (LessonConfig) Action() ActionType { return ActionLessonCompletion }

type ReferralReward struct {
	DoshReward int `json:"doshReward" validate:"gte=0"`
}

type ReferralConfig struct {
	ReferralsRequired        int             `json:"referralsRequired" validate:"gte=1"`
	ReferralReward           *ReferralReward `json:"referralReward,omitempty"`
	RequiresFriendCompletion bool            `json:"requiresFriendCompletion"`
	FriendLessonsRequired    int             `json:"friendLessonsRequired,omitempty" validate:"gte=0"`
	GenerateLink             bool            `json:"generateLink"`
}

func (ReferralConfig) Action() ActionType { return ActionReferral }

type DeadlineType string

const (
	DeadlineFixed   DeadlineType = "fixed"
	DeadlineRolling DeadlineType = "rolling"
)

type DeadlineConfig struct {
	Enabled         bool         `json:"enabled"`
	Type            DeadlineType `json:"type" validate:"omitempty,oneof=fixed rolling"`
	FixedDate       string       `json:"fixedDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RollingDays     int          `json:"rollingDays,omitempty" validate:"gte=0"`
	WarningDays     int          `json:"warningDays,omitempty" validate:"gte=0"`
	AllowExtensions bool         `json:"allowExtensions,omitempty"`
}

// BadgeConfig holds at most one populated action variant plus an orthogonal
// deadline configuration.
type BadgeConfig struct {
	Action   ActionConfig
	Deadline *DeadlineConfig
}

func (c *BadgeConfig) DeadlineSettings() *DeadlineConfig {
	if c == nil {
		return nil
	}
	return c.Deadline
}

func (c *BadgeConfig) Webhook() (WebhookConfig, bool) {
	return variant[WebhookConfig](c)
}

func (c *BadgeConfig) Evidence() (EvidenceConfig, bool) {
	return variant[EvidenceConfig](c)
}

func (c *BadgeConfig) ToolUsage() (ToolUsageConfig, bool) {
	return variant[ToolUsageConfig](c)
}

func (c *BadgeConfig) CodeEntry() (CodeEntryConfig, bool) {
	return variant[CodeEntryConfig](c)
}

func (c *BadgeConfig) Lesson() (LessonConfig, bool) {
	return variant[LessonConfig](c)
}

func (c *BadgeConfig) Referral() (ReferralConfig, bool) {
	return variant[ReferralConfig](c)
}

func variant[T ActionConfig](c *BadgeConfig) (T, bool) {
	var zero T
	if c == nil || c.Action == nil {
		return zero, false
	}
	v, ok := c.Action.(T)
	return v, ok
}

// Clone copies the slices and pointers held by the configuration.
func (c *BadgeConfig) Clone() *BadgeConfig {
	if c == nil {
		return nil
	}
	out := &BadgeConfig{Action: c.Action}
	switch v := c.Action.(type) {
	case WebhookConfig:
		v.RequiredData = maps.Clone(v.RequiredData)
		out.Action = v
	case CodeEntryConfig:
		v.ValidCodes = append([]string(nil), v.ValidCodes...)
		out.Action = v
	case LessonConfig:
		v.RequiredLessonIDs = append([]string(nil), v.RequiredLessonIDs...)
		out.Action = v
	case ReferralConfig:
		if v.ReferralReward != nil {
			r := *v.ReferralReward
			v.ReferralReward = &r
		}
		out.Action = v
	}
	if c.Deadline != nil {
		d := *c.Deadline
		out.Deadline = &d
	}
	return out
}

type badgeConfigJSON struct {
	Webhook   *WebhookConfig   `json:"webhook,omitempty"`
	Evidence  *EvidenceConfig  `json:"evidence,omitempty"`
	ToolUsage *ToolUsageConfig `json:"toolUsage,omitempty"`
	CodeEntry *CodeEntryConfig `json:"codeEntry,omitempty"`
	Lesson    *LessonConfig    `json:"lesson,omitempty"`
	Referral  *ReferralConfig  `json:"referral,omitempty"`
	Deadline  *DeadlineConfig  `json:"deadline,omitempty"`
}

func (c BadgeConfig) MarshalJSON() ([]byte, error) {
	out := badgeConfigJSON{Deadline: c.Deadline}
	switch v := c.Action.(type) {
	case nil:
	case WebhookConfig:
		out.Webhook = &v
	case EvidenceConfig:
		out.Evidence = &v
	case ToolUsageConfig:
		out.ToolUsage = &v
	case CodeEntryConfig:
		out.CodeEntry = &v
	case LessonConfig:
		out.Lesson = &v
	case ReferralConfig:
		out.Referral = &v
	default:
		return nil, fmt.Errorf("unknown action config %T", v)
	}
	return json.Marshal(out)
}

func (c *BadgeConfig) UnmarshalJSON(data []byte) error {
	var in badgeConfigJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var variants []ActionConfig
	if in.Webhook != nil {
		variants = append(variants, *in.Webhook)
	}
	if in.Evidence != nil {
		variants = append(variants, *in.Evidence)
	}
	if in.ToolUsage != nil {
		variants = append(variants, *in.ToolUsage)
	}
	if in.CodeEntry != nil {
		variants = append(variants, *in.CodeEntry)
	}
	if in.Lesson != nil {
		variants = append(variants, *in.Lesson)
	}
	if in.Referral != nil {
		variants = append(variants, *in.Referral)
	}
	if len(variants) > 1 {
		return ErrMultipleActionConfigs
	}

	*c = BadgeConfig{Deadline: in.Deadline}
	if len(variants) == 1 {
		c.Action = variants[0]
	}
	return nil
}
