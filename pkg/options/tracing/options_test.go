package tracing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOptions(t *testing.T) {
	o := NewOptions()
	assert.False(t, o.Enabled)
	assert.Equal(t, "mongo-bootstrap", o.ServiceName)
	assert.Equal(t, ExporterOTLPGRPC, o.ExporterType)
	assert.Empty(t, o.Validate(), "disabled options are always valid")
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		errs   int
	}{
		{"valid grpc", func(o *Options) {}, 0},
		{"stdout needs no endpoint", func(o *Options) { o.ExporterType = ExporterStdout; o.Endpoint = "" }, 0},
		{"grpc needs endpoint", func(o *Options) { o.Endpoint = "" }, 1},
		{"unknown exporter", func(o *Options) { o.ExporterType = "zipkin" }, 1},
		{"unknown sampler", func(o *Options) { o.SamplerType = "sometimes" }, 1},
		{"ratio out of range", func(o *Options) { o.SamplerType = SamplerRatio; o.SamplerRatio = 1.5 }, 1},
		{"no service name", func(o *Options) { o.ServiceName = "" }, 1},
		{"zero export timeout", func(o *Options) { o.ExportTimeout = 0 }, 1},
		{"several at once", func(o *Options) { o.ServiceName = ""; o.ExportTimeout = -time.Second }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			o.Enabled = true
			tt.modify(o)
			assert.Len(t, o.Validate(), tt.errs)
		})
	}
}

func TestOptionsComplete(t *testing.T) {
	o := &Options{}
	assert.NoError(t, o.Complete())
	assert.NotNil(t, o.Headers)
}
