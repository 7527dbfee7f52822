package repository

import (
	_ "embed"
	"os"

	"dosh_badges/internal/model"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

//go:embed seed.json
var defaultSeed []byte

type Seed struct {
	Badges    []SeedBadge              `json:"badges"`
	Lessons   []model.AvailableLesson  `json:"lessons"`
	Referrals []model.ReferralProgress `json:"referrals"`
}

type SeedBadge struct {
	Badge  model.Badge        `json:"badge"`
	Config *model.BadgeConfig `json:"config,omitempty"`
}

// LoadSeed reads seed data from path, or the built-in mock data when path is
// empty. Every badge is validated before it is accepted.
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read seed file %s", path)
		}
		data = raw
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}

	for _, entry := range seed.Badges {
		if err := model.ValidateBadge(entry.Badge, entry.Config); err != nil {
			return nil, errors.Wrapf(err, "seed badge %s", entry.Badge.ID)
		}
	}
	return &seed, nil
}
