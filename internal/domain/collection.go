package domain

import (
	"sort"
)

// Collection is an ordered, de-duplicated view of one entity kind, most recent
// first. Limit truncates the view after every mutation when positive.
type Collection struct {
	Kind  EntityKind
	Items []Entity
	Limit int
}

func NewCollection(kind EntityKind, entities []Entity, limit int) Collection {
	bestByID := make(map[string]int, len(entities))
	kept := make([]Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.ID == "" {
			continue
		}
		if idx, seen := bestByID[entity.ID]; seen {
			if entity.UpdatedAt.After(kept[idx].UpdatedAt) {
				kept[idx] = entity.Clone()
			}
			continue
		}
		bestByID[entity.ID] = len(kept)
		kept = append(kept, entity.Clone())
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].UpdatedAt.After(kept[j].UpdatedAt)
	})

	c := Collection{Kind: kind, Items: kept, Limit: limit}
	return c.truncated()
}

func (c Collection) Len() int {
	return len(c.Items)
}

func (c Collection) IndexOf(id string) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) Get(id string) (Entity, bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return Entity{}, false
	}
	return c.Items[idx], true
}

func (c Collection) Contains(id string) bool {
	return c.IndexOf(id) >= 0
}

func (c Collection) IDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ID
	}
	return ids
}

// Clone returns a deep copy, safe to hand to readers outside the owning loop.
func (c Collection) Clone() Collection {
	out := Collection{Kind: c.Kind, Limit: c.Limit}
	if c.Items != nil {
		out.Items = make([]Entity, len(c.Items))
		for i, item := range c.Items {
			out.Items[i] = item.Clone()
		}
	}
	return out
}

func (c Collection) truncated() Collection {
	if c.Limit > 0 && len(c.Items) > c.Limit {
		c.Items = c.Items[:c.Limit]
	}
	return c
}

// insertionIndex returns the position for an entry with the given recency so
// that it lands ahead of every entry with an equal or older timestamp.
func insertionIndex(items []Entity, entity Entity) int {
	return sort.Search(len(items), func(i int) bool {
		return !items[i].UpdatedAt.After(entity.UpdatedAt)
	})
}
