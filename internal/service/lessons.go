package service

import (
	"context"
	"fmt"

	"dosh_badges/internal/model"
)

// CompleteLesson marks a required lesson done for a lesson-completion badge.
func (s *BadgeService) CompleteLesson(ctx context.Context, badgeID, lessonID string) (model.BadgeStatus, error) {
	now := s.clock()
	status, err := s.update(ctx, badgeID, func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		if b.ActionType != model.ActionLessonCompletion {
			return b, ErrWrongActionType
		}
		return completeLesson(b, cfg, lessonID, now)
	})
	if err != nil {
		return model.BadgeStatus{}, err
	}

	s.hub.Publish(Event{Type: EventProgress, BadgeID: badgeID, Progress: progressOf(&status), Message: lessonID, At: now})
	return status, nil
}

// BadgeLessons lists the lessons a badge requires, in requirement order.
func (s *BadgeService) BadgeLessons(ctx context.Context, badgeID string) ([]model.LessonRequirement, error) {
	b, cfg, err := s.repo.GetBadge(ctx, badgeID)
	if err != nil {
		return nil, badgeErr(err)
	}
	lesson, ok := cfg.Lesson()
	if !ok {
		return nil, ErrWrongActionType
	}

	catalog, err := s.lessons.LessonsByID(ctx, lesson.RequiredLessonIDs)
	if err != nil {
		return nil, fmt.Errorf("badge %s lessons: %w", badgeID, err)
	}
	return lessonRequirements(b, lesson, catalog), nil
}

func (s *BadgeService) ListLessons(ctx context.Context) ([]model.AvailableLesson, error) {
	lessons, err := s.lessons.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}
