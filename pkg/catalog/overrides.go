package catalog

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed overrides.yaml
var overridesYAML []byte

// overrideTable is the shape of overrides.yaml.
type overrideTable struct {
	Items []struct {
		ID           int32 `yaml:"id"`
		HitsToBreak  byte  `yaml:"hits_to_break"`
		IsBreakable  bool  `yaml:"is_breakable"`
		IsBackground bool  `yaml:"is_background"`
	} `yaml:"items"`
	PunchEffects []struct {
		ID             int32   `yaml:"id"`
		Range          int     `yaml:"range"`
		AllowedTargets []int32 `yaml:"allowed_targets"`
	} `yaml:"punch_effects"`
}

// ApplyOverrides applies the embedded override table to c. Call once, after
// Load, before the catalog is shared with other goroutines.
func (c *Catalog) ApplyOverrides() error {
	var table overrideTable
	if err := yaml.Unmarshal(overridesYAML, &table); err != nil {
		return err
	}

	for _, o := range table.Items {
		cfg := c.Get(o.ID)
		cfg.ID = o.ID
		cfg.HitsToBreak = o.HitsToBreak
		cfg.IsBreakable = o.IsBreakable
		cfg.IsBackground = o.IsBackground
		c.mu.Lock()
		c.items[o.ID] = cfg
		c.mu.Unlock()
	}

	for _, pe := range table.PunchEffects {
		cfg := c.Get(pe.ID)
		targets := make(map[int32]struct{}, len(pe.AllowedTargets))
		for _, t := range pe.AllowedTargets {
			targets[t] = struct{}{}
		}
		cfg.PunchEffect = &PunchEffect{Range: pe.Range, AllowedTargets: targets}
		c.mu.Lock()
		c.items[pe.ID] = cfg
		c.mu.Unlock()
	}

	return nil
}
