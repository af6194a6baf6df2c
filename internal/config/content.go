package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veles-tales/wildlands/internal/game"
)

type itemEntry struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Category string `json:"category"`
}

type dropEntry struct {
	ItemCode   string `json:"item_code"`
	Resource   string `json:"resource"`
	DropChance int    `json:"drop_chance"`
	MinQty     int    `json:"min_qty"`
	MaxQty     int    `json:"max_qty"`
	MinLevel   int    `json:"min_level"`
}

type areaEntry struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Mobs  []string    `json:"mobs"`
	Drops []dropEntry `json:"drops"`
}

type passiveEntry struct {
	Modifier string  `json:"modifier"`
	Value    float64 `json:"value"`
}

type archetypeEntry struct {
	Key      string         `json:"key"`
	Name     string         `json:"name"`
	Passives []passiveEntry `json:"passives"`
}

type rawContent struct {
	Items   []itemEntry      `json:"items"`
	Areas   []areaEntry      `json:"areas"`
	Races   []archetypeEntry `json:"races"`
	Classes []archetypeEntry `json:"classes"`
}

// AreaDrop is one drop-table line resolved against the item list. The item
// is referenced by code; storage resolves the numeric ID at seed time.
type AreaDrop struct {
	AreaKey    string
	Resource   game.Resource
	ItemCode   string
	DropChance int
	MinQty     int
	MaxQty     int
	MinLevel   int
}

// AreaMob is one possible ambush creature for an area.
type AreaMob struct {
	AreaKey string
	Name    string
}

// LoadedContent is the validated game content used to seed the database.
type LoadedContent struct {
	Items   []game.Item
	Drops   []AreaDrop
	Mobs    []AreaMob
	Races   []game.Race
	Classes []game.Class
}

// LoadContent reads and validates the content file at path. It requires a
// non-empty `items` and `areas` list and rejects drops that reference
// unknown item codes or carry out-of-range chances.
func LoadContent(path string) (*LoadedContent, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}
	var rc rawContent
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	if len(rc.Items) == 0 {
		return nil, fmt.Errorf("content file %s: items is empty (provide 'items' array)", path)
	}
	if len(rc.Areas) == 0 {
		return nil, fmt.Errorf("content file %s: areas is empty (provide 'areas' array)", path)
	}

	out := &LoadedContent{}

	itemCodes := make(map[string]struct{}, len(rc.Items))
	for _, it := range rc.Items {
		code := strings.TrimSpace(it.Code)
		if code == "" {
			return nil, fmt.Errorf("content file %s: item entry missing 'code'", path)
		}
		if _, exists := itemCodes[code]; exists {
			return nil, fmt.Errorf("content file %s: duplicate item code '%s'", path, code)
		}
		itemCodes[code] = struct{}{}
		out.Items = append(out.Items, game.Item{
			Code:     code,
			Name:     it.Name,
			Rarity:   it.Rarity,
			Category: it.Category,
		})
	}

	areaKeys := make(map[string]struct{}, len(rc.Areas))
	for _, a := range rc.Areas {
		key := strings.TrimSpace(a.Key)
		if key == "" {
			return nil, fmt.Errorf("content file %s: area entry missing 'key'", path)
		}
		if _, exists := areaKeys[key]; exists {
			return nil, fmt.Errorf("content file %s: duplicate area key '%s'", path, key)
		}
		areaKeys[key] = struct{}{}

		for _, m := range a.Mobs {
			if strings.TrimSpace(m) == "" {
				return nil, fmt.Errorf("content file %s: area '%s' has an empty mob name", path, key)
			}
			out.Mobs = append(out.Mobs, AreaMob{AreaKey: key, Name: m})
		}

		for _, d := range a.Drops {
			if _, known := itemCodes[d.ItemCode]; !known {
				return nil, fmt.Errorf("content file %s: area '%s' drop references unknown item code '%s'", path, key, d.ItemCode)
			}
			resource, err := game.NormalizeResource(d.Resource)
			if err != nil {
				return nil, fmt.Errorf("content file %s: area '%s' drop '%s': %w", path, key, d.ItemCode, err)
			}
			if d.DropChance < 1 || d.DropChance > 100 {
				return nil, fmt.Errorf("content file %s: area '%s' drop '%s' has drop_chance %d outside 1..100", path, key, d.ItemCode, d.DropChance)
			}
			if d.MinQty < 1 || d.MaxQty < d.MinQty {
				return nil, fmt.Errorf("content file %s: area '%s' drop '%s' has invalid quantity range %d..%d", path, key, d.ItemCode, d.MinQty, d.MaxQty)
			}
			out.Drops = append(out.Drops, AreaDrop{
				AreaKey:    key,
				Resource:   resource,
				ItemCode:   d.ItemCode,
				DropChance: d.DropChance,
				MinQty:     d.MinQty,
				MaxQty:     d.MaxQty,
				MinLevel:   d.MinLevel,
			})
		}
	}

	races, err := convertArchetypes(path, "race", rc.Races)
	if err != nil {
		return nil, err
	}
	for _, a := range races {
		out.Races = append(out.Races, game.Race{Key: a.key, Name: a.name, Passives: a.passives})
	}
	classes, err := convertArchetypes(path, "class", rc.Classes)
	if err != nil {
		return nil, err
	}
	for _, a := range classes {
		out.Classes = append(out.Classes, game.Class{Key: a.key, Name: a.name, Passives: a.passives})
	}

	return out, nil
}

type archetype struct {
	key      string
	name     string
	passives string
}

// knownModifiers are the passive keys the combat layer understands.
// Unknown keys are a content bug and fail validation.
var knownModifiers = map[string]struct{}{
	"dmg_pct":              {},
	"def_pct":              {},
	"heal_power_pct":       {},
	"crit_chance":          {},
	"crit_mult":            {},
	"dodge_chance":         {},
	"lifesteal_pct":        {},
	"first_strike_chance":  {},
	"low_hp_rage_pct":      {},
	"low_hp_threshold_pct": {},
	"hp_max":               {},
	"mp_max":               {},
	"atk":                  {},
	"def":                  {},
}

func convertArchetypes(path, kind string, entries []archetypeEntry) ([]archetype, error) {
	keySet := make(map[string]struct{}, len(entries))
	out := make([]archetype, 0, len(entries))
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			return nil, fmt.Errorf("content file %s: %s entry missing 'key'", path, kind)
		}
		if _, exists := keySet[key]; exists {
			return nil, fmt.Errorf("content file %s: duplicate %s key '%s'", path, kind, key)
		}
		keySet[key] = struct{}{}
		for _, p := range e.Passives {
			if _, known := knownModifiers[p.Modifier]; !known {
				return nil, fmt.Errorf("content file %s: %s '%s' has unknown passive modifier '%s'", path, kind, key, p.Modifier)
			}
		}
		passives, err := json.Marshal(e.Passives)
		if err != nil {
			return nil, fmt.Errorf("content file %s: %s '%s': %w", path, kind, key, err)
		}
		out = append(out, archetype{key: key, name: e.Name, passives: string(passives)})
	}
	return out, nil
}
