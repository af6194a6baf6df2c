package storage

import (
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/loot"
)

// CatalogSource adapts the repository's content tables to the shape the
// catalog cache loads: loot candidates plus the per-entry minimum level.
type CatalogSource struct {
	repo Repository
}

func NewCatalogSource(repo Repository) *CatalogSource {
	return &CatalogSource{repo: repo}
}

func (s *CatalogSource) DropEntries(areaKey string, resource game.Resource) ([]loot.Candidate, []int, error) {
	entries, err := s.repo.DropEntries(areaKey, string(resource))
	if err != nil {
		return nil, nil, err
	}
	candidates := make([]loot.Candidate, 0, len(entries))
	minLevels := make([]int, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, loot.Candidate{
			ItemID:     e.ItemID,
			Code:       e.Item.Code,
			Name:       e.Item.Name,
			Rarity:     e.Item.Rarity,
			DropChance: e.DropChance,
			MinQty:     e.MinQty,
			MaxQty:     e.MaxQty,
		})
		minLevels = append(minLevels, e.MinLevel)
	}
	return candidates, minLevels, nil
}

func (s *CatalogSource) MobNames(areaKey string) ([]string, error) {
	return s.repo.MobNames(areaKey)
}
