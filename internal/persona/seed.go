package persona

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// DefaultSeed returns the demo personas bundled with the binary.
func DefaultSeed() ([]models.Persona, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile reads personas from a YAML file with the same layout as the
// bundled seed.
func LoadSeedFile(path string) ([]models.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML list of personas and checks ids and statuses.
func ParseSeed(data []byte) ([]models.Persona, error) {
	var personas []models.Persona
	if err := yaml.Unmarshal(data, &personas); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}

	seen := make(map[string]bool, len(personas))
	for i, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("seed entry %d: missing id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("seed entry %d: %w %q", i, ErrDuplicateID, p.ID)
		}
		seen[p.ID] = true
		if !p.Status.Valid() {
			return nil, fmt.Errorf("seed entry %q: unknown status %q", p.ID, p.Status)
		}
		if personas[i].KeyPainPoints == nil {
			personas[i].KeyPainPoints = []string{}
		}
		if personas[i].Tags == nil {
			personas[i].Tags = []string{}
		}
	}
	return personas, nil
}
