package badges

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
	"github.com/edupulse/engage/pkg/logger"
)

// catalogFile is the YAML badge catalog layout.
type catalogFile struct {
	Badges []catalogEntry `yaml:"badges"`
}

type catalogEntry struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Tier        string          `yaml:"tier"`
	Icon        string          `yaml:"icon"`
	Criteria    catalogCriteria `yaml:"criteria"`
}

type catalogCriteria struct {
	MinScore       *int               `yaml:"min_score"`
	MinStreak      *int               `yaml:"min_streak"`
	MinEngagements *catalogEngagement `yaml:"min_engagements"`
}

type catalogEngagement struct {
	EventType string `yaml:"event_type"`
	Count     int    `yaml:"count"`
}

// SeedCatalog loads the badge catalog from a YAML file and upserts each
// badge by name. Existing badges are updated in place so catalog edits
// take effect on restart without losing earned awards.
func SeedCatalog(path string, badgeRepo BadgeRepository, log *logger.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read badge catalog %s: %w", path, err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to parse badge catalog %s: %w", path, err)
	}

	created, updated := 0, 0

	for _, entry := range catalog.Badges {
		if entry.Name == "" {
			return fmt.Errorf("badge catalog %s contains an entry without a name", path)
		}

		criteria := models.BadgeCriteria{
			MinScore:  entry.Criteria.MinScore,
			MinStreak: entry.Criteria.MinStreak,
		}
		if entry.Criteria.MinEngagements != nil {
			criteria.MinEngagements = &models.EngagementThreshold{
				EventType: models.EventKind(entry.Criteria.MinEngagements.EventType),
				Count:     entry.Criteria.MinEngagements.Count,
			}
		}

		criteriaJSON, err := json.Marshal(&criteria)
		if err != nil {
			return fmt.Errorf("failed to encode criteria for badge %s: %w", entry.Name, err)
		}

		existing, err := badgeRepo.GetByName(entry.Name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up badge %s: %w", entry.Name, err)
		}

		if existing != nil && err == nil {
			existing.Description = entry.Description
			existing.Tier = entry.Tier
			existing.Icon = entry.Icon
			existing.Criteria = criteriaJSON
			if err := badgeRepo.Save(existing); err != nil {
				return fmt.Errorf("failed to update badge %s: %w", entry.Name, err)
			}
			updated++
			continue
		}

		badge := &models.Badge{
			Name:        entry.Name,
			Description: entry.Description,
			Tier:        entry.Tier,
			Icon:        entry.Icon,
			Criteria:    criteriaJSON,
		}
		if err := badgeRepo.Create(badge); err != nil {
			return fmt.Errorf("failed to create badge %s: %w", entry.Name, err)
		}
		created++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Str("path", path).
		Msg("Badge catalog seeded")

	return nil
}
