package service

import (
	"context"
	"errors"
	"time"

	"dosh_badges/internal/model"
	"dosh_badges/internal/rules"
)

var (
	ErrBadgeNotFound        = errors.New("badge not found")
	ErrBadgeExists          = errors.New("badge already exists")
	ErrInvalidBadge         = errors.New("invalid badge definition")
	ErrMilestoneNotFound    = errors.New("milestone not found")
	ErrAlreadyEarned        = errors.New("badge already earned")
	ErrNotClaimable         = errors.New("badge is not ready to be claimed")
	ErrDeadlineExpired      = errors.New("badge deadline has passed")
	ErrMilestoneLocked      = errors.New("milestone is not unlocked yet")
	ErrMilestoneEarned      = errors.New("milestone already earned")
	ErrNoDeadline           = errors.New("badge has no deadline")
	ErrExtensionsNotAllowed = errors.New("deadline extensions are not allowed for this badge")
	ErrInvalidExtension     = errors.New("extension must be at least one day")
	ErrWrongActionType      = errors.New("action does not match the badge action type")
	ErrActionInFlight       = errors.New("an action of this kind is already running for the badge")
	ErrActionNotFound       = errors.New("action not found")
	ErrInvalidCode          = errors.New("invalid code")
	ErrInsufficientEvidence = errors.New("insufficient evidence")
	ErrLessonNotRequired    = errors.New("lesson is not required by this badge")
	ErrLessonOutOfOrder     = errors.New("lessons must be completed in order")
	ErrLessonCompleted      = errors.New("lesson already completed")
	ErrReferralNotFound     = errors.New("referral not found")
	ErrInvalidReferral      = errors.New("referred friend is required")
	ErrDuplicateReferral    = errors.New("friend was already referred")
	ErrNoReferralLink       = errors.New("badge does not generate referral links")
)

// Clock returns the current instant. Services never read time.Now directly.
type Clock func() time.Time

// Options carries the policy and defaults shared by the services.
type Options struct {
	Rules             rules.Options
	ReferralBaseURL   string
	EvidenceMinLength int
	Delays            ActionDelays
}

// ActionDelays are the simulated processing times of the async actions.
type ActionDelays struct {
	Code     time.Duration
	Evidence time.Duration
	Tool     time.Duration
}

const DefaultEvidenceMinLength = 500

func DefaultOptions() Options {
	return Options{
		ReferralBaseURL:   rules.DefaultReferralBaseURL,
		EvidenceMinLength: DefaultEvidenceMinLength,
		Delays: ActionDelays{
			Code:     time.Second,
			Evidence: 2 * time.Second,
			Tool:     500 * time.Millisecond,
		},
	}
}

type Service struct {
	*BadgeService
	*ActionService
	*ReferralService
}

func NewService(badgeService *BadgeService, actionService *ActionService, referralService *ReferralService) *Service {
	return &Service{
		BadgeService:    badgeService,
		ActionService:   actionService,
		ReferralService: referralService,
	}
}

type BadgeServiceI interface {
	ListBadges(ctx context.Context) ([]model.BadgeStatus, error)
	GetBadge(ctx context.Context, id string) (model.BadgeStatus, *model.BadgeConfig, error)
	CreateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) (model.BadgeStatus, error)
	UpdateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) (model.BadgeStatus, error)
	DeleteBadge(ctx context.Context, id string) error
	ClaimBadge(ctx context.Context, id string) (model.BadgeStatus, error)
	ClaimMilestone(ctx context.Context, badgeID, milestoneID string) (model.BadgeStatus, error)
	ExtendDeadline(ctx context.Context, id string, days int) (model.BadgeStatus, error)
	ReportProgress(ctx context.Context, id string, progress int) (model.BadgeStatus, error)
	CompleteLesson(ctx context.Context, badgeID, lessonID string) (model.BadgeStatus, error)
	BadgeLessons(ctx context.Context, badgeID string) ([]model.LessonRequirement, error)
	ListLessons(ctx context.Context) ([]model.AvailableLesson, error)
	ClaimableBadges(ctx context.Context) ([]model.Badge, error)
	Dashboard(ctx context.Context) (model.DashboardStats, error)
	UpcomingDeadlines(ctx context.Context, withinDays int) ([]model.Badge, error)
	OverdueBadges(ctx context.Context) ([]model.Badge, error)
}

type BadgeRepository interface {
	ListBadges(ctx context.Context) ([]model.Badge, map[string]*model.BadgeConfig, error)
	GetBadge(ctx context.Context, id string) (model.Badge, *model.BadgeConfig, error)
	CreateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) error
	UpdateBadge(ctx context.Context, id string, fn func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error)) (model.Badge, error)
	ReplaceBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) error
	DeleteBadge(ctx context.Context, id string) error
}

type LessonRepository interface {
	ListLessons(ctx context.Context) ([]model.AvailableLesson, error)
	LessonsByID(ctx context.Context, ids []string) ([]model.AvailableLesson, error)
}

type ActionServiceI interface {
	SubmitCode(ctx context.Context, badgeID, code string) (*Task, error)
	SubmitEvidence(ctx context.Context, badgeID string, evidence Evidence) (*Task, error)
	RecordToolUsage(ctx context.Context, badgeID string) (*Task, error)
	Action(id string) (*Task, bool)
}

type ReferralServiceI interface {
	ReferralProgress(ctx context.Context, userID, badgeID string) (ReferralView, error)
	RegisterReferral(ctx context.Context, userID, badgeID string, friend Friend) (ReferralView, error)
	RecordFriendLessons(ctx context.Context, userID, badgeID, referralID string, completedLessons int) (ReferralView, error)
	Share(ctx context.Context, userID, badgeID, userName string) (ShareResult, error)
}

type ReferralRepository interface {
	GetReferralProgress(ctx context.Context, userID, badgeID string) (model.ReferralProgress, error)
	UpdateReferralProgress(
		ctx context.Context,
		userID, badgeID string,
		fn func(p model.ReferralProgress, b model.Badge, cfg *model.BadgeConfig) (model.ReferralProgress, model.Badge, error),
	) (model.ReferralProgress, model.Badge, error)
}

func today(now time.Time) string {
	return now.UTC().Format(rules.DateLayout)
}
