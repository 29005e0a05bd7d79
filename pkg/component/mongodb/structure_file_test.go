package mongodb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const sampleStructure = `
collections:
  - name: users
    idx:
      - name: tenant_created
        spec: {tenant: 1, created_at: -1, email: 1}
        options:
          unique: true
          partialFilterExpression:
            deleted: false
      - name: body_text
        spec:
          body: text
  - name: sessions
`

func TestParseStructure(t *testing.T) {
	structure, err := ParseStructure([]byte(sampleStructure))
	require.NoError(t, err)
	require.Len(t, structure, 2)

	users := structure[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Idx, 2)

	idx := users.Idx[0]
	assert.Equal(t, "tenant_created", idx.Name)
	assert.Equal(t, bson.D{
		{Key: "tenant", Value: 1},
		{Key: "created_at", Value: -1},
		{Key: "email", Value: 1},
	}, idx.Spec.Keys())
	assert.Equal(t, true, idx.Options["unique"])
	assert.Equal(t, map[string]interface{}{"deleted": false}, idx.Options["partialFilterExpression"])

	assert.Equal(t, IndexSpec{{Key: "body", Value: "text"}}, users.Idx[1].Spec)

	assert.Equal(t, "sessions", structure[1].Name)
	assert.Empty(t, structure[1].Idx)

	assert.NoError(t, ValidateStructure(structure, nil))
}

func TestParseStructure_JSON(t *testing.T) {
	structure, err := ParseStructure([]byte(`{"collections":[{"name":"users","idx":[{"name":"b_a","spec":{"b":1,"a":-1}}]}]}`))
	require.NoError(t, err)
	require.Len(t, structure, 1)

	assert.Equal(t, IndexSpec{{Key: "b", Value: 1}, {Key: "a", Value: -1}}, structure[0].Idx[0].Spec)
}

func TestParseStructure_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"unknown key":     "collections:\n  - name: users\n    indexes: []\n",
		"spec not a map":  "collections:\n  - name: users\n    idx:\n      - name: a\n        spec: [1]\n",
		"not a structure": "- just\n- a list\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStructure([]byte(doc))
			require.Error(t, err)
			assert.True(t, IsKind(err, ErrInvalidStructure), "got %v", err)
		})
	}
}

func TestParseStructure_NoCollections(t *testing.T) {
	structure, err := ParseStructure([]byte("collections: []\n"))
	require.NoError(t, err)
	assert.NotNil(t, structure, "an empty declaration still reconciles")
	assert.Empty(t, structure)
}

func TestLoadStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structure.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleStructure), 0o600))

	structure, err := LoadStructure(path)
	require.NoError(t, err)
	assert.Len(t, structure, 2)

	_, err = LoadStructure(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, IsKind(err, ErrInvalidInput))
}
