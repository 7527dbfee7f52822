package service

import (
	"context"
	"errors"
	"fmt"

	"dosh_badges/internal/model"
	"dosh_badges/internal/repository"
	"dosh_badges/internal/rules"

	"github.com/google/uuid"
)

type BadgeService struct {
	repo    BadgeRepository
	lessons LessonRepository
	hub     *Hub
	metrics *Metrics
	clock   Clock
	opts    Options
}

func NewBadgeService(repo BadgeRepository, lessons LessonRepository, hub *Hub, metrics *Metrics, clock Clock, opts Options) *BadgeService {
	return &BadgeService{
		repo:    repo,
		lessons: lessons,
		hub:     hub,
		metrics: metrics,
		clock:   clock,
		opts:    opts,
	}
}

func badgeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBadgeNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrBadgeExists
	default:
		return err
	}
}

func (s *BadgeService) ListBadges(ctx context.Context) ([]model.BadgeStatus, error) {
	badges, configs, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}

	now := s.clock()
	statuses := make([]model.BadgeStatus, len(badges))
	for i, b := range badges {
		statuses[i] = rules.Evaluate(b, configs[b.ID], now, s.opts.Rules)
	}
	return statuses, nil
}

func (s *BadgeService) GetBadge(ctx context.Context, id string) (model.BadgeStatus, *model.BadgeConfig, error) {
	b, cfg, err := s.repo.GetBadge(ctx, id)
	if err != nil {
		return model.BadgeStatus{}, nil, badgeErr(err)
	}
	return rules.Evaluate(b, cfg, s.clock(), s.opts.Rules), cfg, nil
}

// CreateBadge stores a new badge definition. Missing ids are generated and an
// enabled deadline configuration is resolved into the badge deadline.
func (s *BadgeService) CreateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) (model.BadgeStatus, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b = prepareBadge(b, cfg)

	if err := model.ValidateBadge(b, cfg); err != nil {
		return model.BadgeStatus{}, fmt.Errorf("%w: %w", ErrInvalidBadge, err)
	}
	if err := s.repo.CreateBadge(ctx, b, cfg); err != nil {
		return model.BadgeStatus{}, badgeErr(err)
	}
	return rules.Evaluate(b, cfg, s.clock(), s.opts.Rules), nil
}

// UpdateBadge replaces a badge and its configuration as a whole.
func (s *BadgeService) UpdateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) (model.BadgeStatus, error) {
	b = prepareBadge(b, cfg)

	if err := model.ValidateBadge(b, cfg); err != nil {
		return model.BadgeStatus{}, fmt.Errorf("%w: %w", ErrInvalidBadge, err)
	}
	if err := s.repo.ReplaceBadge(ctx, b, cfg); err != nil {
		return model.BadgeStatus{}, badgeErr(err)
	}
	return rules.Evaluate(b, cfg, s.clock(), s.opts.Rules), nil
}

func (s *BadgeService) DeleteBadge(ctx context.Context, id string) error {
	return badgeErr(s.repo.DeleteBadge(ctx, id))
}

// prepareBadge fills generated milestone ids and the configured deadline.
func prepareBadge(b model.Badge, cfg *model.BadgeConfig) model.Badge {
	b = b.Clone()
	for i := range b.Milestones {
		if b.Milestones[i].ID == "" {
			b.Milestones[i].ID = uuid.NewString()
		}
	}
	if b.Deadline == "" {
		if deadline, ok := rules.EffectiveDeadline(cfg.DeadlineSettings(), b.StartedAt); ok {
			b.Deadline = deadline
		}
	}
	return b
}

// update runs a reducer against the stored badge and evaluates the result.
func (s *BadgeService) update(
	ctx context.Context,
	id string,
	reduce func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error),
) (model.BadgeStatus, error) {
	var config *model.BadgeConfig
	b, err := s.repo.UpdateBadge(ctx, id, func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		config = cfg
		return reduce(b, cfg)
	})
	if err != nil {
		return model.BadgeStatus{}, badgeErr(err)
	}
	return rules.Evaluate(b, config, s.clock(), s.opts.Rules), nil
}

func (s *BadgeService) ClaimBadge(ctx context.Context, id string) (model.BadgeStatus, error) {
	now := s.clock()
	status, err := s.update(ctx, id, func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		return claimBadge(b, cfg, now, s.opts.Rules)
	})
	if err != nil {
		return model.BadgeStatus{}, err
	}

	s.metrics.badgeClaimed(status.Badge.DoshReward)
	s.hub.Publish(Event{Type: EventBadgeEarned, BadgeID: id, Progress: progressOf(&status), At: now})
	return status, nil
}

func (s *BadgeService) ClaimMilestone(ctx context.Context, badgeID, milestoneID string) (model.BadgeStatus, error) {
	now := s.clock()
	status, err := s.update(ctx, badgeID, func(b model.Badge, _ *model.BadgeConfig) (model.Badge, error) {
		return claimMilestone(b, milestoneID, now)
	})
	if err != nil {
		return model.BadgeStatus{}, err
	}

	m, _, _ := status.Badge.Milestone(milestoneID)
	s.metrics.milestoneClaimed(m.DoshReward)
	s.hub.Publish(Event{Type: EventMilestoneEarned, BadgeID: badgeID, MilestoneID: milestoneID, At: now})
	return status, nil
}

func (s *BadgeService) ExtendDeadline(ctx context.Context, id string, days int) (model.BadgeStatus, error) {
	now := s.clock()
	status, err := s.update(ctx, id, func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		return extendDeadline(b, cfg, days)
	})
	if err != nil {
		return model.BadgeStatus{}, err
	}

	s.hub.Publish(Event{Type: EventDeadlineExtended, BadgeID: id, Message: status.Badge.Deadline, At: now})
	return status, nil
}

// ReportProgress records progress reported by an external system such as a
// webhook. Lesson and referral badges derive their progress and reject it.
func (s *BadgeService) ReportProgress(ctx context.Context, id string, progress int) (model.BadgeStatus, error) {
	now := s.clock()
	status, err := s.update(ctx, id, func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		switch b.ActionType {
		case model.ActionLessonCompletion, model.ActionReferral:
			return b, ErrWrongActionType
		}
		if b.IsEarned {
			return b, ErrAlreadyEarned
		}
		return advanceProgress(b, cfg, progress, now), nil
	})
	if err != nil {
		return model.BadgeStatus{}, err
	}

	s.hub.Publish(Event{Type: EventProgress, BadgeID: id, Progress: progressOf(&status), At: now})
	return status, nil
}

func (s *BadgeService) ClaimableBadges(ctx context.Context) ([]model.Badge, error) {
	badges, configs, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return rules.ClaimableBadges(badges, configs, s.clock(), s.opts.Rules), nil
}

func (s *BadgeService) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	badges, configs, err := s.repo.ListBadges(ctx)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("list badges: %w", err)
	}
	return rules.Dashboard(badges, configs, s.clock(), s.opts.Rules), nil
}

// UpcomingDeadlines lists badges due within withinDays days. A non-positive
// window means the default week.
func (s *BadgeService) UpcomingDeadlines(ctx context.Context, withinDays int) ([]model.Badge, error) {
	if withinDays <= 0 {
		withinDays = rules.DefaultUpcomingDays
	}
	badges, _, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return rules.UpcomingDeadlines(badges, withinDays, s.clock()), nil
}

func (s *BadgeService) OverdueBadges(ctx context.Context) ([]model.Badge, error) {
	badges, _, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return rules.OverdueBadges(badges, s.clock()), nil
}
