package schema

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load reads a catalog from a YAML file and validates it.
func Load(path string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var cat Catalog
	if err := k.Unmarshal("", &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if cat.Objects == nil {
		cat.Objects = map[string]Object{}
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	return &cat, nil
}
