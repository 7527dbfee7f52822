package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dosh_badges/internal/model"
	"dosh_badges/internal/repository"
	"dosh_badges/internal/rules"
	"dosh_badges/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReferralView is a user's referral progress together with the badge's
// referral requirements.
type ReferralView struct {
	Progress                 model.ReferralProgress `json:"progress"`
	EffectiveReferrals       int                    `json:"effectiveReferrals"`
	ReferralsRequired        int                    `json:"referralsRequired"`
	RequiresFriendCompletion bool                   `json:"requiresFriendCompletion"`
	FriendLessonsRequired    int                    `json:"friendLessonsRequired"`
	Badge                    *model.BadgeStatus     `json:"badge,omitempty"`
}

// Friend identifies a newly referred user.
type Friend struct {
	UserID string `json:"userId" binding:"required"`
	Email  string `json:"email" binding:"omitempty,email"`
}

type ShareResult struct {
	Text   string `json:"text"`
	Link   string `json:"link"`
	Shared bool   `json:"shared"`
}

type ReferralService struct {
	badges  BadgeRepository
	repo    ReferralRepository
	sink    ShareSink
	hub     *Hub
	metrics *Metrics
	clock   Clock
	opts    Options
}

func NewReferralService(badges BadgeRepository, repo ReferralRepository, sink ShareSink, hub *Hub, metrics *Metrics, clock Clock, opts Options) *ReferralService {
	return &ReferralService{
		badges:  badges,
		repo:    repo,
		sink:    sink,
		hub:     hub,
		metrics: metrics,
		clock:   clock,
		opts:    opts,
	}
}

// ReferralProgress returns the stored progress, or an empty record with a
// fresh link for a user who has not referred anyone yet. The empty record is
// not stored.
func (s *ReferralService) ReferralProgress(ctx context.Context, userID, badgeID string) (ReferralView, error) {
	b, cfg, err := s.badges.GetBadge(ctx, badgeID)
	if err != nil {
		return ReferralView{}, badgeErr(err)
	}
	referral, ok := cfg.Referral()
	if !ok {
		return ReferralView{}, ErrWrongActionType
	}

	now := s.clock()
	p, err := s.repo.GetReferralProgress(ctx, userID, badgeID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		p = s.withLink(model.ReferralProgress{UserID: userID, BadgeID: badgeID}, userID, badgeID, referral, now)
	case err != nil:
		return ReferralView{}, fmt.Errorf("referral progress %s/%s: %w", userID, badgeID, err)
	}

	return s.view(p, b, cfg, referral, now), nil
}

// RegisterReferral records a friend who signed up through the user's link.
func (s *ReferralService) RegisterReferral(ctx context.Context, userID, badgeID string, friend Friend) (ReferralView, error) {
	friend.UserID = strings.TrimSpace(friend.UserID)
	if friend.UserID == "" {
		return ReferralView{}, ErrInvalidReferral
	}

	now := s.clock()
	view, err := s.updateReferrals(ctx, userID, badgeID, now, func(p model.ReferralProgress, referral model.ReferralConfig) (model.ReferralProgress, error) {
		if slices.ContainsFunc(p.Referrals, func(r model.ReferralRecord) bool { return r.ReferredUserID == friend.UserID }) {
			return p, ErrDuplicateReferral
		}
		p = s.withLink(p, userID, badgeID, referral, now)
		p.Referrals = append(p.Referrals, model.ReferralRecord{
			ID:                uuid.NewString(),
			ReferredUserID:    friend.UserID,
			ReferredUserEmail: friend.Email,
			ReferredDate:      today(now),
		})
		return p, nil
	})
	if err != nil {
		return ReferralView{}, err
	}

	s.metrics.referralRegistered()
	return view, nil
}

// RecordFriendLessons raises the number of lessons a referred friend has
// completed. Counts never decrease.
func (s *ReferralService) RecordFriendLessons(ctx context.Context, userID, badgeID, referralID string, completedLessons int) (ReferralView, error) {
	now := s.clock()
	return s.updateReferrals(ctx, userID, badgeID, now, func(p model.ReferralProgress, _ model.ReferralConfig) (model.ReferralProgress, error) {
		i := slices.IndexFunc(p.Referrals, func(r model.ReferralRecord) bool { return r.ID == referralID })
		if i < 0 {
			return p, ErrReferralNotFound
		}
		if completedLessons > p.Referrals[i].FriendCompletedLessons {
			p.Referrals[i].FriendCompletedLessons = completedLessons
		}
		return p, nil
	})
}

// Share sends the invitation text through the configured sink. A failed
// delivery is reported in the result, not as an error.
func (s *ReferralService) Share(ctx context.Context, userID, badgeID, userName string) (ShareResult, error) {
	log := logger.Logger()

	view, err := s.ReferralProgress(ctx, userID, badgeID)
	if err != nil {
		return ShareResult{}, err
	}
	link := view.Progress.ReferralLink
	if link == "" {
		return ShareResult{}, ErrNoReferralLink
	}

	result := ShareResult{Text: rules.ShareText(link, userName), Link: link}
	if s.sink == nil {
		return result, nil
	}
	if err := s.sink.Share(ctx, result.Text); err != nil {
		log.Warn("failed to share referral invitation",
			zap.String("user_id", userID),
			zap.String("badge_id", badgeID),
			zap.Error(err))
		return result, nil
	}

	result.Shared = true
	return result, nil
}

// updateReferrals applies mutate to the stored progress, recounts it and
// mirrors the effective count into the badge progress in one write.
func (s *ReferralService) updateReferrals(
	ctx context.Context,
	userID, badgeID string,
	now time.Time,
	mutate func(p model.ReferralProgress, referral model.ReferralConfig) (model.ReferralProgress, error),
) (ReferralView, error) {
	var (
		config   *model.BadgeConfig
		referral model.ReferralConfig
	)

	p, b, err := s.repo.UpdateReferralProgress(ctx, userID, badgeID,
		func(p model.ReferralProgress, b model.Badge, cfg *model.BadgeConfig) (model.ReferralProgress, model.Badge, error) {
			var ok bool
			if referral, ok = cfg.Referral(); !ok {
				return p, b, ErrWrongActionType
			}
			config = cfg

			p, err := mutate(p, referral)
			if err != nil {
				return p, b, err
			}
			p = rules.RecountReferrals(p, referral.FriendLessonsRequired, today(now))
			return p, mirrorReferrals(b, cfg, p, now), nil
		})
	if err != nil {
		return ReferralView{}, badgeErr(err)
	}

	view := s.view(p, b, config, referral, now)
	s.hub.Publish(Event{
		Type:     EventReferral,
		BadgeID:  badgeID,
		UserID:   userID,
		Progress: progressOf(view.Badge),
		At:       now,
	})
	return view, nil
}

func (s *ReferralService) withLink(p model.ReferralProgress, userID, badgeID string, referral model.ReferralConfig, now time.Time) model.ReferralProgress {
	if !referral.GenerateLink {
		return p
	}
	if p.ReferralLink != "" && rules.ValidReferralCode(rules.LinkCode(p.ReferralLink)) {
		return p
	}
	p.ReferralLink = rules.ReferralLink(s.opts.ReferralBaseURL, rules.ReferralCode(userID, badgeID, now))
	return p
}

func (s *ReferralService) view(p model.ReferralProgress, b model.Badge, cfg *model.BadgeConfig, referral model.ReferralConfig, now time.Time) ReferralView {
	if p.Referrals == nil {
		p.Referrals = []model.ReferralRecord{}
	}
	lessons := referral.FriendLessonsRequired
	if lessons <= 0 {
		lessons = rules.DefaultFriendLessonsRequired
	}
	status := rules.Evaluate(b, cfg, now, s.opts.Rules)

	return ReferralView{
		Progress:                 p,
		EffectiveReferrals:       rules.EffectiveReferralCount(p, referral.RequiresFriendCompletion),
		ReferralsRequired:        referral.ReferralsRequired,
		RequiresFriendCompletion: referral.RequiresFriendCompletion,
		FriendLessonsRequired:    lessons,
		Badge:                    &status,
	}
}
