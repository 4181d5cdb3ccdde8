// Package seeddata holds the microgreen seed catalogue: germination targets,
// growing tips and seed categories.
package seeddata

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/arbovm/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// maxTypoDistance is the edit distance tolerated when matching seed names.
const maxTypoDistance = 2

// Seed is the growing profile of one seed type.
type Seed struct {
	Name                    string   `yaml:"name" json:"seedType"`
	ExpectedGerminationDays int      `yaml:"expected_germination_days" json:"expected_germination_days"`
	OptimalTemperature      float64  `yaml:"optimal_temperature" json:"optimal_temperature"`
	OptimalHumidity         float64  `yaml:"optimal_humidity" json:"optimal_humidity"`
	SuccessRate             float64  `yaml:"success_rate" json:"success_rate"`
	GrowingTips             []string `yaml:"growing_tips" json:"growing_tips"`
}

// Category groups seeds by growth speed or difficulty.
type Category struct {
	Name  string   `yaml:"name" json:"name"`
	Seeds []string `yaml:"seeds" json:"seeds"`
}

// Range is an environmental band.
type Range struct {
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Optimal float64 `yaml:"optimal" json:"optimal"`
}

// Environment lists the general growing ranges.
type Environment struct {
	Temperature Range `yaml:"temperature" json:"temperature"`
	Humidity    Range `yaml:"humidity" json:"humidity"`
	LightHours  Range `yaml:"light_hours" json:"light_hours"`
}

// Catalogue is the parsed seed catalogue. It is read-only after Load.
type Catalogue struct {
	Environment Environment `yaml:"environment" json:"environment"`
	Seeds       []Seed      `yaml:"seeds" json:"seeds"`
	Categories  []Category  `yaml:"categories" json:"categories"`
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

// Parse reads a catalogue document.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid seed catalogue: %w", err)
	}
	for _, category := range c.Categories {
		for _, name := range category.Seeds {
			if _, ok := c.exact(name); !ok {
				return nil, fmt.Errorf("category %q references unknown seed %q", category.Name, name)
			}
		}
	}
	return &c, nil
}

// Lookup finds a seed by name, ignoring case and tolerating small typos.
func (c *Catalogue) Lookup(name string) (Seed, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Seed{}, false
	}
	if seed, ok := c.exact(name); ok {
		return seed, true
	}

	query := strings.ToLower(name)
	best, bestDistance := -1, maxTypoDistance+1
	for i, seed := range c.Seeds {
		d := levenshtein.Distance(query, strings.ToLower(seed.Name))
		if d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return Seed{}, false
	}
	return c.Seeds[best], true
}

// Category finds a category by name, ignoring case.
func (c *Catalogue) Category(name string) (Category, bool) {
	for _, category := range c.Categories {
		if strings.EqualFold(category.Name, strings.TrimSpace(name)) {
			return category, true
		}
	}
	return Category{}, false
}

// CategoryOf returns the first category listing seedName, or "".
func (c *Catalogue) CategoryOf(seedName string) string {
	for _, category := range c.Categories {
		for _, name := range category.Seeds {
			if name == seedName {
				return category.Name
			}
		}
	}
	return ""
}

// SeedsIn resolves a category's seed profiles in catalogue order.
func (c *Catalogue) SeedsIn(category Category) []Seed {
	seeds := make([]Seed, 0, len(category.Seeds))
	for _, name := range category.Seeds {
		if seed, ok := c.exact(name); ok {
			seeds = append(seeds, seed)
		}
	}
	return seeds
}

func (c *Catalogue) exact(name string) (Seed, bool) {
	for _, seed := range c.Seeds {
		if strings.EqualFold(seed.Name, name) {
			return seed, true
		}
	}
	return Seed{}, false
}

// Recommendations returns day-appropriate advice followed by the first two
// growing tips of seed. An unknown seed gets only the day advice.
func Recommendations(seed *Seed, dayNumber int) []string {
	var recs []string
	switch {
	case dayNumber <= 2:
		recs = append(recs, "Maintain consistent moisture levels", "Ensure proper temperature control")
	case dayNumber <= 5:
		recs = append(recs, "Monitor for even germination", "Check for adequate air circulation")
	default:
		recs = append(recs, "Prepare for harvest timing", "Assess quality and color development")
	}

	if seed != nil {
		tips := seed.GrowingTips
		if len(tips) > 2 {
			tips = tips[:2]
		}
		recs = append(recs, tips...)
	}
	return recs
}
