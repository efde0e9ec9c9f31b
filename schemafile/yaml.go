package schemafile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// maxDepth bounds node nesting so recursive anchors fail instead of
// looping.
const maxDepth = 1000

// JSONFromYAML converts a YAML document to JSON, keeping mapping keys
// in document order.
func JSONFromYAML(data []byte) (json.RawMessage, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return json.RawMessage("null"), nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return json.RawMessage("null"), nil
		}
		root = root.Content[0]
	}

	var buf bytes.Buffer
	if err := encodeNode(&buf, root, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(buf *bytes.Buffer, n *yaml.Node, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("nesting too deep at line %d", n.Line)
	}

	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("non-scalar mapping key at line %d", key.Line)
			}
			k, err := json.Marshal(key.Value)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := encodeNode(buf, n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeNode(buf, item, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return encodeScalar(buf, n)

	case yaml.AliasNode:
		return encodeNode(buf, n.Alias, depth+1)

	default:
		return fmt.Errorf("unsupported YAML node at line %d", n.Line)
	}
}

func encodeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Tag {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return fmt.Errorf("decoding bool at line %d: %w", n.Line, err)
		}
		out, err := json.Marshal(b)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return fmt.Errorf("decoding integer at line %d: %w", n.Line, err)
		}
		out, err := json.Marshal(i)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return fmt.Errorf("decoding float at line %d: %w", n.Line, err)
		}
		out, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encoding float at line %d: %w", n.Line, err)
		}
		buf.Write(out)
		return nil
	default:
		// Strings, timestamps, and unknown tags keep their written form.
		out, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	}
}
