package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSON(t *testing.T) {
	out, err := toJSON([]byte(`
name: demo
replicas: 2
enforceEager: true
engineArgs:
  zeta: 1
  alpha: "x"
  beta: 0.5
kaito:
  preferredNodes: [a, b]
base: &b {k: v}
ref: *b
empty: null
`))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name":"demo","replicas":2,"enforceEager":true,
		"engineArgs":{"zeta":1,"alpha":"x","beta":0.5},
		"kaito":{"preferredNodes":["a","b"]},
		"base":{"k":"v"},"ref":{"k":"v"},"empty":null
	}`, string(out))
	assert.Less(t, strings.Index(string(out), "zeta"), strings.Index(string(out), "alpha"))

	out, err = toJSON([]byte(`  {"name":"demo"}  `))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"demo"}`, string(out))

	_, err = toJSON([]byte(""))
	assert.Error(t, err)
	_, err = toJSON([]byte("a: [b"))
	assert.Error(t, err)
}

func TestReadRequest_Stdin(t *testing.T) {
	out, err := readRequest("-", strings.NewReader("name: demo\n"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"demo"}`, string(out))

	_, err = readRequest("", nil)
	assert.Error(t, err)
}
