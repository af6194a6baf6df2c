// Package catalog caches the read-only gathering content (drop tables and
// ambush-mob pools) in front of the relational store. The cache is an
// explicit object with a manual invalidation hook so admin reseeds can
// flush it; concurrent cold loads are collapsed with singleflight.
package catalog

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/loot"
)

// Source is the persistent backend the cache loads from.
type Source interface {
	DropEntries(areaKey string, resource game.Resource) ([]loot.Candidate, []int, error)
	MobNames(areaKey string) ([]string, error)
}

type dropSet struct {
	candidates []loot.Candidate
	minLevels  []int
}

// Cache memoizes per-(area, resource) drop tables and per-area mob pools.
type Cache struct {
	src Source

	mu    sync.RWMutex
	drops map[string]dropSet
	mobs  map[string][]string

	group singleflight.Group
}

func New(src Source) *Cache {
	return &Cache{
		src:   src,
		drops: make(map[string]dropSet),
		mobs:  make(map[string][]string),
	}
}

func dropKey(areaKey string, resource game.Resource) string {
	return fmt.Sprintf("drops:%s:%s", areaKey, resource)
}

// Candidates returns the droppable items for an (area, resource) pair,
// filtered down to entries the given player level qualifies for.
func (c *Cache) Candidates(areaKey string, resource game.Resource, level int) ([]loot.Candidate, error) {
	key := dropKey(areaKey, resource)

	c.mu.RLock()
	set, ok := c.drops[key]
	c.mu.RUnlock()

	if !ok {
		v, err, _ := c.group.Do(key, func() (interface{}, error) {
			cands, minLevels, err := c.src.DropEntries(areaKey, resource)
			if err != nil {
				return nil, err
			}
			s := dropSet{candidates: cands, minLevels: minLevels}
			c.mu.Lock()
			c.drops[key] = s
			c.mu.Unlock()
			return s, nil
		})
		if err != nil {
			return nil, err
		}
		set = v.(dropSet)
	}

	out := make([]loot.Candidate, 0, len(set.candidates))
	for i, cand := range set.candidates {
		if set.minLevels[i] <= level {
			out = append(out, cand)
		}
	}
	return out, nil
}

// MobNames returns the area's ambush creature pool.
func (c *Cache) MobNames(areaKey string) ([]string, error) {
	key := "mobs:" + areaKey

	c.mu.RLock()
	names, ok := c.mobs[key]
	c.mu.RUnlock()
	if ok {
		return names, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		names, err := c.src.MobNames(areaKey)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.mobs[key] = names
		c.mu.Unlock()
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate drops every cached table. Call after reseeding content.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.drops = make(map[string]dropSet)
	c.mobs = make(map[string][]string)
	c.mu.Unlock()
}
