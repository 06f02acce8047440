package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestResource(t *testing.T) {
	res := Resource("madspild", "")

	name, ok := res.Set().Value(attribute.Key("service.name"))
	assert.True(t, ok)
	assert.Equal(t, "madspild", name.AsString())

	version, ok := res.Set().Value(attribute.Key("service.version"))
	assert.True(t, ok)
	assert.Equal(t, "dev", version.AsString())
}
