package repository

import (
	"context"

	"dosh_badges/internal/model"

	"github.com/pkg/errors"
)

func (r *Repository) GetReferralProgress(ctx context.Context, userID, badgeID string) (model.ReferralProgress, error) {
	if err := ctx.Err(); err != nil {
		return model.ReferralProgress{}, err
	}

	r.RLock()
	defer r.RUnlock()

	p, ok := r.referrals[model.ReferralKey(userID, badgeID)]
	if !ok {
		return model.ReferralProgress{}, errors.Wrapf(ErrNotFound, "referral progress %s/%s", userID, badgeID)
	}
	return p.Clone(), nil
}

// UpdateReferralProgress applies fn to a user's referral progress on a badge
// and to the badge itself, storing both results together. A user without
// progress yet starts from the zero record.
func (r *Repository) UpdateReferralProgress(
	ctx context.Context,
	userID, badgeID string,
	fn func(p model.ReferralProgress, b model.Badge, cfg *model.BadgeConfig) (model.ReferralProgress, model.Badge, error),
) (model.ReferralProgress, model.Badge, error) {
	var (
		progress model.ReferralProgress
		badge    model.Badge
	)

	err := r.Transaction(ctx, func(tx *Tx) error {
		b, cfg, err := tx.Badge(badgeID)
		if err != nil {
			return err
		}

		p, ok := tx.ReferralProgress(userID, badgeID)
		if !ok {
			p = model.ReferralProgress{UserID: userID, BadgeID: badgeID}
		}

		progress, badge, err = fn(p, b, cfg)
		if err != nil {
			return err
		}
		progress.UserID, progress.BadgeID = userID, badgeID

		tx.PutReferralProgress(progress)
		return tx.PutBadge(badge)
	})
	if err != nil {
		return model.ReferralProgress{}, model.Badge{}, err
	}
	return progress.Clone(), badge.Clone(), nil
}
