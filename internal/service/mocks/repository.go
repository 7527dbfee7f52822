package mocks

import (
	"context"

	"dosh_badges/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) ListBadges(ctx context.Context) ([]model.Badge, map[string]*model.BadgeConfig, error) {
	args := m.Called(ctx)
	badges, _ := args.Get(0).([]model.Badge)
	configs, _ := args.Get(1).(map[string]*model.BadgeConfig)
	return badges, configs, args.Error(2)
}

func (m *MockBadgeRepository) GetBadge(ctx context.Context, id string) (model.Badge, *model.BadgeConfig, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(model.Badge)
	cfg, _ := args.Get(1).(*model.BadgeConfig)
	return b, cfg, args.Error(2)
}

func (m *MockBadgeRepository) CreateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) error {
	args := m.Called(ctx, b, cfg)
	return args.Error(0)
}

// UpdateBadge applies fn to the badge and config the expectation returns, the
// way the store would.
func (m *MockBadgeRepository) UpdateBadge(
	ctx context.Context,
	id string,
	fn func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error),
) (model.Badge, error) {
	args := m.Called(ctx, id)
	if err := args.Error(2); err != nil {
		return model.Badge{}, err
	}
	b, _ := args.Get(0).(model.Badge)
	cfg, _ := args.Get(1).(*model.BadgeConfig)
	return fn(b, cfg)
}

func (m *MockBadgeRepository) ReplaceBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) error {
	args := m.Called(ctx, b, cfg)
	return args.Error(0)
}

func (m *MockBadgeRepository) DeleteBadge(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLessonRepository struct {
	mock.Mock
}

func (m *MockLessonRepository) ListLessons(ctx context.Context) ([]model.AvailableLesson, error) {
	args := m.Called(ctx)
	lessons, _ := args.Get(0).([]model.AvailableLesson)
	return lessons, args.Error(1)
}

func (m *MockLessonRepository) LessonsByID(ctx context.Context, ids []string) ([]model.AvailableLesson, error) {
	args := m.Called(ctx, ids)
	lessons, _ := args.Get(0).([]model.AvailableLesson)
	return lessons, args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetReferralProgress(ctx context.Context, userID, badgeID string) (model.ReferralProgress, error) {
	args := m.Called(ctx, userID, badgeID)
	p, _ := args.Get(0).(model.ReferralProgress)
	return p, args.Error(1)
}

// UpdateReferralProgress applies fn to the progress, badge and config the
// expectation returns.
func (m *MockReferralRepository) UpdateReferralProgress(
	ctx context.Context,
	userID, badgeID string,
	fn func(p model.ReferralProgress, b model.Badge, cfg *model.BadgeConfig) (model.ReferralProgress, model.Badge, error),
) (model.ReferralProgress, model.Badge, error) {
	args := m.Called(ctx, userID, badgeID)
	if err := args.Error(3); err != nil {
		return model.ReferralProgress{}, model.Badge{}, err
	}
	p, _ := args.Get(0).(model.ReferralProgress)
	b, _ := args.Get(1).(model.Badge)
	cfg, _ := args.Get(2).(*model.BadgeConfig)
	return fn(p, b, cfg)
}

type MockShareSink struct {
	mock.Mock
}

func (m *MockShareSink) Share(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}
