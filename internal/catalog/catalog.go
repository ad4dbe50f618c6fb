// Package catalog resolves subscription plan names to processor price ids.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// Plan is one purchasable subscription plan.
type Plan struct {
	Name        string `yaml:"name"`
	PriceID     string `yaml:"price_id"`
	Description string `yaml:"description"`
	Interval    string `yaml:"interval"`
}

type file struct {
	Plans []Plan `yaml:"plans"`
}

// Catalog is an immutable plan lookup table. Names match case-insensitively.
type Catalog struct {
	byName  map[string]Plan
	byPrice map[string]Plan
}

// Load reads the catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultPlans)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML. Every plan needs a unique name and a price id.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}

	c := &Catalog{
		byName:  make(map[string]Plan, len(f.Plans)),
		byPrice: make(map[string]Plan, len(f.Plans)),
	}
	for i, p := range f.Plans {
		key := normalize(p.Name)
		if key == "" || p.PriceID == "" {
			return nil, fmt.Errorf("plan %d: name and price_id are required", i)
		}
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("plan %q is defined twice", p.Name)
		}
		c.byName[key] = p
		c.byPrice[p.PriceID] = p
	}
	return c, nil
}

// Lookup returns the plan called name.
func (c *Catalog) Lookup(name string) (Plan, bool) {
	p, ok := c.byName[normalize(name)]
	return p, ok
}

// ByPriceID returns the plan that sells priceID.
func (c *Catalog) ByPriceID(priceID string) (Plan, bool) {
	p, ok := c.byPrice[priceID]
	return p, ok
}

// Plans returns all plans ordered by name.
func (c *Catalog) Plans() []Plan {
	plans := make([]Plan, 0, len(c.byName))
	for _, p := range c.byName {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Name < plans[j].Name })
	return plans
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
