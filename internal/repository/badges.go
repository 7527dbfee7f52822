package repository

import (
	"context"

	"dosh_badges/internal/model"

	"github.com/pkg/errors"
)

// ListBadges returns badges in insertion order together with their
// configurations keyed by badge id.
func (r *Repository) ListBadges(ctx context.Context) ([]model.Badge, map[string]*model.BadgeConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r.RLock()
	defer r.RUnlock()

	badges := make([]model.Badge, 0, len(r.order))
	configs := make(map[string]*model.BadgeConfig, len(r.order))
	for _, id := range r.order {
		badges = append(badges, r.badges[id].Clone())
		if cfg := r.configs[id]; cfg != nil {
			configs[id] = cfg.Clone()
		}
	}
	return badges, configs, nil
}

func (r *Repository) GetBadge(ctx context.Context, id string) (model.Badge, *model.BadgeConfig, error) {
	if err := ctx.Err(); err != nil {
		return model.Badge{}, nil, err
	}

	r.RLock()
	defer r.RUnlock()

	b, ok := r.badges[id]
	if !ok {
		return model.Badge{}, nil, errors.Wrapf(ErrNotFound, "badge %s", id)
	}
	return b.Clone(), r.configs[id].Clone(), nil
}

func (r *Repository) CreateBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) error {
	return r.Transaction(ctx, func(tx *Tx) error {
		return tx.CreateBadge(b, cfg)
	})
}

// UpdateBadge applies fn to the stored badge and stores its result as the
// new record. Nothing is stored when fn fails.
func (r *Repository) UpdateBadge(ctx context.Context, id string, fn func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error)) (model.Badge, error) {
	var updated model.Badge
	err := r.Transaction(ctx, func(tx *Tx) error {
		b, cfg, err := tx.Badge(id)
		if err != nil {
			return err
		}
		updated, err = fn(b, cfg)
		if err != nil {
			return err
		}
		if updated.ID != id {
			return errors.Errorf("badge %s cannot change id to %s", id, updated.ID)
		}
		return tx.PutBadge(updated)
	})
	if err != nil {
		return model.Badge{}, err
	}
	return updated.Clone(), nil
}

// ReplaceBadge stores a new version of the badge and its configuration.
func (r *Repository) ReplaceBadge(ctx context.Context, b model.Badge, cfg *model.BadgeConfig) error {
	return r.Transaction(ctx, func(tx *Tx) error {
		if err := tx.PutBadge(b); err != nil {
			return err
		}
		return tx.PutConfig(b.ID, cfg)
	})
}

func (r *Repository) DeleteBadge(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *Tx) error {
		return tx.DeleteBadge(id)
	})
}
