package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the namespace as FL source: constants first, sorted by name,
// then variables in declaration order. Parsing the output reproduces the
// namespace.
func (p *Parser) Format(_ context.Context, w io.Writer) error {
	for _, name := range sortedKeys(p.consts) {
		v := p.consts[name]

		_, err := fmt.Fprintf(w, "const %s(%s) = %s\n", name, v.Type, v.Literal())
		if err != nil {
			return err
		}
	}

	for v := range p.Variables() {
		_, err := fmt.Fprintln(w, v.Declaration())
		if err != nil {
			return err
		}
	}

	return nil
}

// FormatJSON writes the variables as a JSON object.
func (p *Parser) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	native := make(map[string]any, len(p.vars))
	for name, v := range p.vars {
		native[name] = v.Value.Native()
	}

	if indent > 0 {
		jsonData, err = json.MarshalIndent(native, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(native)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the variables as a YAML mapping in declaration order.
// Dict entries keep their insertion order.
func (p *Parser) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	doc := make(yaml.MapSlice, 0, len(p.order))
	for v := range p.Variables() {
		doc = append(doc, yaml.MapItem{Key: v.Name, Value: yamlValue(v.Value)})
	}

	yamlData, err := yaml.MarshalContext(ctx, doc, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

func yamlValue(v *Value) any {
	switch v.Type {
	case TypeList, TypeSet, TypeTuple:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = yamlValue(item)
		}

		return items
	case TypeDict:
		entries := make(yaml.MapSlice, 0, len(v.Keys))
		for _, key := range v.Keys {
			entries = append(entries, yaml.MapItem{
				Key:   key,
				Value: yamlValue(v.Entries[key]),
			})
		}

		return entries
	default:
		return v.Native()
	}
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
