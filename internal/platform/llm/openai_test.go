package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientDefaults(t *testing.T) {
	c := NewOpenAIClient("key", "gpt-4o-mini")
	require.NotNil(t, c.client)
	assert.Equal(t, "gpt-4o-mini", c.model)
	assert.InDelta(t, 0.2, c.temperature, 0.001)
}

func TestWithTemperature(t *testing.T) {
	c := NewOpenAIClient("key", "gpt-4o-mini", WithTemperature(0.7))
	assert.InDelta(t, 0.7, c.temperature, 0.001)
}

func TestWithBaseURL(t *testing.T) {
	c := NewOpenAIClient("key", "gpt-4o-mini", WithBaseURL("key", "http://localhost:11434/v1"))
	require.NotNil(t, c.client)
}
