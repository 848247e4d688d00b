package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NotEmpty(t, c.List())

	m, err := c.Get("qwen/qwen3-8b")
	require.NoError(t, err)
	assert.Equal(t, "Qwen/Qwen3-8B", m.ID)
	v, ok := m.RecommendedArgs.Get("gpu-memory-utilization")
	assert.True(t, ok)
	assert.Equal(t, 0.9, v)

	assert.Equal(t, 4, c.MinGPUs("meta-llama/Llama-3.3-70B-Instruct"))
	assert.Equal(t, 0, c.MinGPUs("nobody/unknown"))

	_, err = c.Get("nobody/unknown")
	assert.ErrorIs(t, err, ErrUnknownModel)

	for _, m := range c.ForEngine("llamacpp") {
		assert.NotEmpty(t, m.GGUFFile)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("models:\n  - id: a\n  - id: A\n"))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = Parse([]byte("models:\n  - name: nameless\n"))
	assert.ErrorContains(t, err, "no id")

	_, err = Parse([]byte("models:\n  - id: a\n    recommendedArgs:\n      nested: {x: 1}\n"))
	assert.ErrorContains(t, err, "nested values are not supported")
}
