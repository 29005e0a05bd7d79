package metrics

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	o := NewOptions()
	assert.False(t, o.Enabled())
	assert.Empty(t, o.Validate())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--metrics.textfile=/var/lib/node_exporter/mongo.prom"}))
	assert.True(t, o.Enabled())
	assert.Empty(t, o.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := map[string]*Options{
		"bad namespace": {Namespace: "mongo-bootstrap"},
		"bad extension": {Namespace: "mongo", Textfile: "out.txt"},
	}
	for name, o := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Len(t, o.Validate(), 1)
		})
	}
}
