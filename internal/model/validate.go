package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMultipleActionConfigs = errors.New("badge config holds more than one action configuration")
	ErrFrequencyMismatch     = errors.New("one-off badges must have frequency none and habitual badges must not")
	ErrConfigMismatch        = errors.New("action configuration does not match badge action type")
	ErrMilestoneModeConflict = errors.New("milestones cannot be both auto-generated and custom")
	ErrDeadlineConfig        = errors.New("invalid deadline configuration")
	ErrDuplicateMilestone    = errors.New("duplicate milestone id")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateBadge checks a badge and its optional configuration before they
// enter the store.
func ValidateBadge(b Badge, cfg *BadgeConfig) error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid badge: %w", err)
	}

	if (b.Type == BadgeTypeOneOff) != (b.Frequency == FrequencyNone) {
		return ErrFrequencyMismatch
	}

	if mc := b.MilestoneConfig; mc != nil && mc.AutoGenerate && mc.CustomMilestones {
		return ErrMilestoneModeConflict
	}

	seen := make(map[string]struct{}, len(b.Milestones))
	for _, m := range b.Milestones {
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMilestone, m.ID)
		}
		seen[m.ID] = struct{}{}
	}

	if cfg == nil {
		return nil
	}
	return ValidateConfig(b.ActionType, *cfg)
}

func ValidateConfig(actionType ActionType, cfg BadgeConfig) error {
	if cfg.Action != nil {
		if cfg.Action.Action() != actionType {
			return fmt.Errorf("%w: got %s, badge is %s", ErrConfigMismatch, cfg.Action.Action(), actionType)
		}
		if err := validate.Struct(cfg.Action); err != nil {
			return fmt.Errorf("invalid %s config: %w", actionType, err)
		}
	}

	d := cfg.Deadline
	if d == nil {
		return nil
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrDeadlineConfig, err)
	}
	if !d.Enabled {
		return nil
	}
	switch d.Type {
	case DeadlineFixed:
		if d.FixedDate == "" {
			return fmt.Errorf("%w: fixed deadline requires fixedDate", ErrDeadlineConfig)
		}
	case DeadlineRolling:
		if d.RollingDays < 1 {
			return fmt.Errorf("%w: rolling deadline requires rollingDays", ErrDeadlineConfig)
		}
	default:
		return fmt.Errorf("%w: deadline type is required", ErrDeadlineConfig)
	}
	return nil
}
