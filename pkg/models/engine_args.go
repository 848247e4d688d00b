package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"go.yaml.in/yaml/v3"
)

// EngineArg is one free-form engine flag.
type EngineArg struct {
	Key   string
	Value any
}

// EngineArgs is an insertion-ordered map of scalar engine flags. Order is
// kept through JSON and YAML decoding because it is reproduced verbatim on
// the engine command line.
type EngineArgs []EngineArg

// Schema describes EngineArgs as the JSON object it is encoded as.
func (EngineArgs) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		Description:          "Free-form engine flags; values must be scalars. Order is preserved.",
		AdditionalProperties: true,
	}
}

// Get returns the value stored for key.
func (a EngineArgs) Get(key string) (any, bool) {
	for _, arg := range a {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return nil, false
}

// Set replaces the value for key or appends it.
func (a *EngineArgs) Set(key string, value any) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, EngineArg{Key: key, Value: value})
}

func (a EngineArgs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arg := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(arg.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("engine arg %q: %w", arg.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *EngineArgs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("engineArgs must be an object")
	}

	out := EngineArgs{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case json.Delim:
			return fmt.Errorf("engineArgs.%s: nested values are not supported", key)
		case nil:
			return fmt.Errorf("engineArgs.%s: null is not a valid value", key)
		case json.Number:
			out = append(out, EngineArg{Key: key, Value: numberValue(v)})
		default:
			out = append(out, EngineArg{Key: key, Value: v})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

func (a *EngineArgs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("engineArgs must be a mapping")
	}
	out := EngineArgs{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("engineArgs.%s: nested values are not supported", key)
		}
		var decoded any
		if err := val.Decode(&decoded); err != nil {
			return fmt.Errorf("engineArgs.%s: %w", key, err)
		}
		if decoded == nil {
			return fmt.Errorf("engineArgs.%s: null is not a valid value", key)
		}
		out = append(out, EngineArg{Key: key, Value: decoded})
	}
	*a = out
	return nil
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// FormatArgValue renders a scalar the way it appears on a command line.
func FormatArgValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
