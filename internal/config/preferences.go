package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
)

// LoadPreferences reads a preference bundle from a YAML or JSON file.
// A null product score is kept as a missing score.
func LoadPreferences(path string) (*model.PreferenceBundle, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	return ParsePreferences(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// ParsePreferences decodes a preference bundle. JSON object keys are
// product IDs written as strings.
func ParsePreferences(data []byte, isJSON bool) (*model.PreferenceBundle, error) {
	var bundle model.PreferenceBundle

	if isJSON {
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("%w: parse preferences json: %w", common.ErrInvalidConfig, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("%w: parse preferences yaml: %w", common.ErrInvalidConfig, err)
		}
	}

	for id, score := range bundle.ProductScores {
		if score != nil && !isFinite(*score) {
			return nil, fmt.Errorf("%w: product %d has non-finite score %v", common.ErrInvalidConfig, id, *score)
		}
	}
	for name, score := range bundle.CategoryScores {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: category score with empty name", common.ErrInvalidConfig)
		}
		if !isFinite(score) {
			return nil, fmt.Errorf("%w: category %q has non-finite score %v", common.ErrInvalidConfig, name, score)
		}
	}

	return &bundle, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
