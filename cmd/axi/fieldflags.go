package main

import (
	"github.com/matsen/arxivindex/internal/config"
	"github.com/matsen/arxivindex/internal/paper"
)

// resolveFieldK applies repository defaults to the --field and -k flags.
// Validation of k is left to the semantic package.
func resolveFieldK(cfg *config.Config, fieldFlag string, kFlag int) (paper.Field, int, error) {
	name := fieldFlag
	if name == "" {
		name = cfg.DefaultField
	}
	field, err := paper.ParseField(name)
	if err != nil {
		return "", 0, err
	}
	k := kFlag
	if k == 0 {
		k = cfg.DefaultK
	}
	return field, k, nil
}
