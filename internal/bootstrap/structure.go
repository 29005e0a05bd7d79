package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
)

// StructureInitializer loads and validates the declared collections and
// indexes. An empty path leaves the structure nil, which
// limits bootstrap to a connectivity check.
type StructureInitializer struct {
	path      string
	structure []mongodb.CollectionStructure
}

// NewStructureInitializer creates a new StructureInitializer.
func NewStructureInitializer(path string) *StructureInitializer {
	return &StructureInitializer{path: path}
}

// Name returns the name of the initializer.
func (si *StructureInitializer) Name() string {
	return "structure"
}

// Dependencies returns the names of initializers this one depends on.
func (si *StructureInitializer) Dependencies() []string {
	return []string{"logging"}
}

// Initialize reads the structure file.
func (si *StructureInitializer) Initialize(ctx context.Context) error {
	if si.path == "" {
		return nil
	}

	structure, err := mongodb.LoadStructure(si.path)
	if err != nil {
		return fmt.Errorf("failed to load structure: %w", err)
	}
	if err := mongodb.ValidateStructure(structure, nil); err != nil {
		return fmt.Errorf("invalid structure in %s: %w", si.path, err)
	}
	si.structure = structure

	indexes := 0
	for _, c := range structure {
		indexes += len(c.Idx)
	}
	logger.Infow("Structure loaded", "path", si.path, "collections", len(structure), "indexes", indexes)
	return nil
}

// Structure returns the loaded declaration.
func (si *StructureInitializer) Structure() []mongodb.CollectionStructure {
	return si.structure
}
