package repository

import (
	"context"

	"dosh_badges/internal/model"

	"github.com/pkg/errors"
)

func (r *Repository) ListLessons(ctx context.Context) ([]model.AvailableLesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.RLock()
	defer r.RUnlock()

	return append([]model.AvailableLesson(nil), r.lessons...), nil
}

// LessonsByID returns catalog entries in the order of ids. Unknown ids are
// reported as ErrNotFound.
func (r *Repository) LessonsByID(ctx context.Context, ids []string) ([]model.AvailableLesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.RLock()
	defer r.RUnlock()

	byID := make(map[string]model.AvailableLesson, len(r.lessons))
	for _, l := range r.lessons {
		byID[l.ID] = l
	}

	out := make([]model.AvailableLesson, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "lesson %s", id)
		}
		out = append(out, l)
	}
	return out, nil
}
