package mongodb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// structureFile is the on-disk layout:
//
//	collections:
//	  - name: users
//	    idx:
//	      - name: email_unique
//	        spec: {email: 1}
//	        options: {unique: true}
type structureFile struct {
	Collections []CollectionStructure `yaml:"collections"`
}

// LoadStructure reads a structure declaration from a YAML or JSON file.
func LoadStructure(path string) ([]CollectionStructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrInvalidInput.WithOp("loadStructure").WithMessagef("read %s", path).WithCause(err)
	}
	return ParseStructure(data)
}

// ParseStructure decodes a structure declaration. Unknown keys are
// rejected and index key order is preserved. The result is not validated;
// Bootstrap does that before any I/O.
func ParseStructure(data []byte) ([]CollectionStructure, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f structureFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrInvalidStructure.WithOp("parseStructure").WithMessage("structure file is empty")
		}
		return nil, ErrInvalidStructure.WithOp("parseStructure").WithCause(err)
	}
	if f.Collections == nil {
		f.Collections = []CollectionStructure{}
	}
	return f.Collections, nil
}

// UnmarshalYAML decodes a mapping into keys in document order.
func (s *IndexSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: index spec must be a mapping", node.Line)
	}

	out := make(IndexSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		var value interface{}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return err
		}
		out = append(out, bson.E{Key: key, Value: value})
	}

	*s = out
	return nil
}
