package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kart-io/mongo-bootstrap/pkg/component/storage"
	"github.com/kart-io/mongo-bootstrap/pkg/validator"
)

// CollectionStructure declares a collection and the indexes it must carry.
type CollectionStructure struct {
	Name string           `json:"name" yaml:"name" validate:"required,min=1,max=128,collname"`
	Idx  []IndexStructure `json:"idx,omitempty" yaml:"idx,omitempty"`
}

// IndexStructure declares one index. Options are passed to createIndexes
// as-is, after background:true and before the declared name.
type IndexStructure struct {
	Name    string                 `json:"name" yaml:"name" validate:"required,min=1,max=128,nowhitespace"`
	Spec    IndexSpec              `json:"spec" yaml:"spec" validate:"min=1"`
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// IndexSpec is the ordered key document of an index. Order matters for
// compound indexes.
type IndexSpec bson.D

// Keys returns spec as a bson.D.
func (s IndexSpec) Keys() bson.D {
	return bson.D(s)
}

// indexTokens are the non-numeric key directions accepted by the server.
var indexTokens = map[string]struct{}{
	"text":     {},
	"2d":       {},
	"2dsphere": {},
	"hashed":   {},
}

// ValidateStructure checks the declaration without I/O: shape rules,
// key directions and index-name uniqueness within each collection. The
// first violation is returned as ErrInvalidStructure carrying the
// collection, index and rule in its context. A nil checker selects the
// global validator.
func ValidateStructure(structure []CollectionStructure, checker Checker) error {
	if checker == nil {
		checker = validator.Global()
	}

	for i := range structure {
		cs := &structure[i]
		if err := checker.Check(cs); err != nil {
			return structureError(cs.Name, "", "shape", "invalid declaration").WithCause(err)
		}

		seen := make(map[string]struct{}, len(cs.Idx))
		for j := range cs.Idx {
			idx := &cs.Idx[j]
			if err := checker.Check(idx); err != nil {
				return structureError(cs.Name, idx.Name, "shape", "invalid declaration").WithCause(err)
			}
			if _, dup := seen[idx.Name]; dup {
				return structureError(cs.Name, idx.Name, "unique_index_name",
					fmt.Sprintf("index name %q is declared more than once", idx.Name))
			}
			seen[idx.Name] = struct{}{}

			if err := validateKeys(idx.Spec); err != nil {
				return structureError(cs.Name, idx.Name, "key_direction", err.Error())
			}
		}
	}
	return nil
}

func validateKeys(spec IndexSpec) error {
	seen := make(map[string]struct{}, len(spec))
	for _, e := range spec {
		if e.Key == "" {
			return fmt.Errorf("index key must not be empty")
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("key %q appears more than once", e.Key)
		}
		seen[e.Key] = struct{}{}

		if !validDirection(e.Value) {
			return fmt.Errorf("key %q has invalid direction %v; want 1, -1 or one of text, 2d, 2dsphere, hashed", e.Key, e.Value)
		}
	}
	return nil
}

func validDirection(v interface{}) bool {
	switch d := v.(type) {
	case int:
		return d == 1 || d == -1
	case int32:
		return d == 1 || d == -1
	case int64:
		return d == 1 || d == -1
	case float64:
		return d == 1 || d == -1
	case string:
		_, ok := indexTokens[d]
		return ok
	default:
		return false
	}
}

func structureError(collection, index, rule, msg string) *storage.StorageError {
	return ErrInvalidStructure.WithOp("bootstrap.validate").
		WithMessage(describe(collection, index, msg)).
		WithContext(map[string]interface{}{
			"collection": collection,
			"index":      index,
			"rule":       rule,
		})
}

func describe(collection, index, msg string) string {
	if index == "" {
		return fmt.Sprintf("collection %q: %s", collection, msg)
	}
	return fmt.Sprintf("collection %q index %q: %s", collection, index, msg)
}

func checkCollectionName(op, name string) error {
	if !validator.IsCollectionName(name) {
		return ErrInvalidInput.WithOp(op).WithMessagef("invalid collection name %q", name)
	}
	return nil
}

func checkIndexName(op, name string) error {
	if name == "" {
		return ErrInvalidInput.WithOp(op).WithMessage("index name must not be empty")
	}
	return nil
}

// containsCollection reports whether a listCollections result names the
// collection exactly.
func containsCollection(docs []bson.M, name, op string) (bool, error) {
	for _, doc := range docs {
		n, ok := doc["name"].(string)
		if !ok {
			return false, ErrUnexpectedResult.WithOp(op).
				WithMessage("listCollections returned a document without a string name")
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
