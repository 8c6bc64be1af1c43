package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/tise/internal/savefmt"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// yamlNode converts a savejson tree into a YAML node tree. Objects become
// mappings in document order (a plain Go map would lose it); scalars get
// explicit tags so "1" and 1 stay distinct.
func yamlNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(t, 10)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}, nil
	case uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(t, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(t)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, elem := range t {
			child, err := yamlNode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Content = append(seq.Content, child)
		}
		if len(t) == 0 {
			seq.Style = yaml.FlowStyle
		}
		return seq, nil
	case *savejson.Object:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i := 0; i < t.Len(); i++ {
			k, elem := t.At(i)
			child, err := yamlNode(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				child,
			)
		}
		if t.Len() == 0 {
			m.Style = yaml.FlowStyle
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// yamlFloat uses the YAML spellings of the non-finite values and the save
// file's own float text otherwise.
func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return savefmt.FormatFloat(f)
	}
}

// writeYAML encodes a savejson tree as a YAML document.
func writeYAML(w io.Writer, v any) error {
	node, err := yamlNode(v)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	return enc.Close()
}

// writeSaveJSON prints v in the save file's own JSON dialect. Containers are
// indented; scalars are written on one line.
func writeSaveJSON(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	switch savejson.KindOf(v) {
	case savejson.KindArray, savejson.KindObject:
		data, err = savefmt.Marshal(v)
	default:
		data, err = savefmt.MarshalCompact(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
