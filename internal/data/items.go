package data

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/brawlcore/internal/model"
)

//go:embed items.yaml
var defaultItemsYAML []byte

// ItemKind selects the pipeline an item runs through.
type ItemKind string

const (
	KindAttack  ItemKind = "attack"
	KindHeal    ItemKind = "heal"
	KindStatus  ItemKind = "status"
	KindCleanse ItemKind = "cleanse"
	KindVaccine ItemKind = "vaccine"
	KindShield  ItemKind = "shield"
)

// Range is an inclusive roll range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Chain describes secondary hits of an attack item.
type Chain struct {
	Hits   int     `yaml:"hits"`
	Factor float64 `yaml:"factor"`
}

// EffectSpec is the status an item applies.
type EffectSpec struct {
	Type     model.EffectType `yaml:"type"`
	Value    float64          `yaml:"value"`
	Duration time.Duration    `yaml:"duration"`
	Interval time.Duration    `yaml:"interval"`
	Self     bool             `yaml:"self"` // applies to the user instead of the target
}

// Item is one catalog entry.
type Item struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Kind   ItemKind    `yaml:"kind"`
	Damage Range       `yaml:"damage"`
	Heal   Range       `yaml:"heal"`
	Shield int         `yaml:"shield"`
	Chain  Chain       `yaml:"chain"`
	Effect *EffectSpec `yaml:"effect"`
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// Catalog is an immutable item lookup table.
type Catalog struct {
	items map[string]*Item
}

// LoadItems reads the catalog from path, or the embedded default when path is empty.
func LoadItems(path string) (*Catalog, error) {
	raw := defaultItemsYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading item catalog %s: %w", path, err)
		}
		raw = b
	}

	c, err := ParseItems(raw)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded item catalog", "count", c.Len(), "path", path)
	return c, nil
}

// ParseItems builds a catalog from YAML bytes.
func ParseItems(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing item catalog: %w", err)
	}

	c := &Catalog{items: make(map[string]*Item, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("item %q: %w", it.ID, err)
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		c.items[it.ID] = it
	}
	return c, nil
}

// Validate checks that the item is usable by its pipeline.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("empty id")
	}
	switch it.Kind {
	case KindAttack:
		if it.Damage.Max < it.Damage.Min || it.Damage.Min < 0 {
			return fmt.Errorf("invalid damage range [%d, %d]", it.Damage.Min, it.Damage.Max)
		}
		if it.Chain.Hits < 0 || it.Chain.Factor < 0 {
			return fmt.Errorf("invalid chain (hits=%d, factor=%.2f)", it.Chain.Hits, it.Chain.Factor)
		}
	case KindHeal:
		if it.Heal.Max < it.Heal.Min || it.Heal.Min < 0 {
			return fmt.Errorf("invalid heal range [%d, %d]", it.Heal.Min, it.Heal.Max)
		}
	case KindStatus:
		if it.Effect == nil {
			return fmt.Errorf("status item without effect")
		}
	case KindShield:
		if it.Shield <= 0 {
			return fmt.Errorf("shield item with non-positive shield %d", it.Shield)
		}
	case KindCleanse, KindVaccine:
	default:
		return fmt.Errorf("unknown kind %q", it.Kind)
	}

	if it.Effect != nil {
		if _, err := model.ParseEffectType(string(it.Effect.Type)); err != nil {
			return err
		}
		if it.Effect.Duration <= 0 {
			return fmt.Errorf("effect %s without duration", it.Effect.Type)
		}
		if it.Effect.Type.Class() != model.ClassBuff && it.Effect.Interval <= 0 {
			return fmt.Errorf("ticking effect %s without interval", it.Effect.Type)
		}
	}
	return nil
}

// Get returns the item by id, or nil.
func (c *Catalog) Get(id string) *Item {
	if c == nil {
		return nil
	}
	return c.items[id]
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}
