package repository

import (
	"context"
	"sync"

	"dosh_badges/internal/model"
	"dosh_badges/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Repository is the in-memory owner of badges, their configurations,
// referral progress and the lesson catalog. Every read returns copies and
// every write replaces a whole record.
type Repository struct {
	badges    map[string]model.Badge
	configs   map[string]*model.BadgeConfig
	order     []string
	referrals map[string]model.ReferralProgress
	lessons   []model.AvailableLesson
	sync.RWMutex
}

func New() *Repository {
	return &Repository{
		badges:    make(map[string]model.Badge),
		configs:   make(map[string]*model.BadgeConfig),
		referrals: make(map[string]model.ReferralProgress),
	}
}

// NewSeeded builds a repository holding the given seed data.
func NewSeeded(seed *Seed) (*Repository, error) {
	r := New()
	if seed == nil {
		return r, nil
	}

	err := r.Transaction(context.Background(), func(tx *Tx) error {
		for _, entry := range seed.Badges {
			if err := tx.CreateBadge(entry.Badge, entry.Config); err != nil {
				return errors.Wrapf(err, "seed badge %s", entry.Badge.ID)
			}
		}
		for _, p := range seed.Referrals {
			tx.PutReferralProgress(p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.lessons = append([]model.AvailableLesson(nil), seed.Lessons...)

	logger.Logger().Info("Seeded badge store",
		zap.Int("badges", len(seed.Badges)),
		zap.Int("lessons", len(seed.Lessons)),
		zap.Int("referrals", len(seed.Referrals)))

	return r, nil
}

// Transaction runs fn against a staged view of the store. Writes become
// visible together when fn returns nil and are discarded otherwise.
func (r *Repository) Transaction(ctx context.Context, t func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.Lock()
	defer r.Unlock()

	tx := &Tx{
		r:         r,
		badges:    make(map[string]model.Badge),
		configs:   make(map[string]*model.BadgeConfig),
		deleted:   make(map[string]struct{}),
		referrals: make(map[string]model.ReferralProgress),
	}
	if err := t(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Tx is a write transaction. It must not be used after Transaction returns.
type Tx struct {
	r         *Repository
	badges    map[string]model.Badge
	configs   map[string]*model.BadgeConfig
	created   []string
	deleted   map[string]struct{}
	referrals map[string]model.ReferralProgress
}

func (tx *Tx) Badge(id string) (model.Badge, *model.BadgeConfig, error) {
	if _, gone := tx.deleted[id]; gone {
		return model.Badge{}, nil, errors.Wrapf(ErrNotFound, "badge %s", id)
	}
	if b, ok := tx.badges[id]; ok {
		return b.Clone(), tx.configs[id].Clone(), nil
	}
	b, ok := tx.r.badges[id]
	if !ok {
		return model.Badge{}, nil, errors.Wrapf(ErrNotFound, "badge %s", id)
	}
	return b.Clone(), tx.r.configs[id].Clone(), nil
}

func (tx *Tx) CreateBadge(b model.Badge, cfg *model.BadgeConfig) error {
	if _, _, err := tx.Badge(b.ID); err == nil {
		return errors.Wrapf(ErrAlreadyExists, "badge %s", b.ID)
	}
	delete(tx.deleted, b.ID)
	tx.badges[b.ID] = b.Clone()
	tx.configs[b.ID] = cfg.Clone()
	tx.created = append(tx.created, b.ID)
	return nil
}

// PutBadge replaces an existing badge record, keeping its configuration.
func (tx *Tx) PutBadge(b model.Badge) error {
	_, cfg, err := tx.Badge(b.ID)
	if err != nil {
		return err
	}
	tx.badges[b.ID] = b.Clone()
	tx.configs[b.ID] = cfg
	return nil
}

// PutConfig replaces the configuration of an existing badge.
func (tx *Tx) PutConfig(id string, cfg *model.BadgeConfig) error {
	b, _, err := tx.Badge(id)
	if err != nil {
		return err
	}
	tx.badges[id] = b
	tx.configs[id] = cfg.Clone()
	return nil
}

func (tx *Tx) DeleteBadge(id string) error {
	if _, _, err := tx.Badge(id); err != nil {
		return err
	}
	delete(tx.badges, id)
	delete(tx.configs, id)
	tx.deleted[id] = struct{}{}
	return nil
}

func (tx *Tx) ReferralProgress(userID, badgeID string) (model.ReferralProgress, bool) {
	key := model.ReferralKey(userID, badgeID)
	if p, ok := tx.referrals[key]; ok {
		return p.Clone(), true
	}
	p, ok := tx.r.referrals[key]
	return p.Clone(), ok
}

func (tx *Tx) PutReferralProgress(p model.ReferralProgress) {
	tx.referrals[model.ReferralKey(p.UserID, p.BadgeID)] = p.Clone()
}

func (tx *Tx) commit() {
	r := tx.r
	for id := range tx.deleted {
		delete(r.badges, id)
		delete(r.configs, id)
		r.order = removeID(r.order, id)
	}
	for id, b := range tx.badges {
		r.badges[id] = b
		r.configs[id] = tx.configs[id]
	}
	for _, id := range tx.created {
		if _, ok := r.badges[id]; ok && !containsID(r.order, id) {
			r.order = append(r.order, id)
		}
	}
	for key, p := range tx.referrals {
		r.referrals[key] = p
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
