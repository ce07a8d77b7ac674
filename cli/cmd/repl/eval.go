package repl

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/ardnew/flk/lang"
)

var typePrefix = regexp.MustCompile(`^\(\s*(\w+)\s*\)\s*(.*)$`)

var boolWords = map[string]bool{"true": true, "false": true, "да": true, "нет": true}

// inferTypes returns the types tried, in order, for text entered without a
// type prefix. References may yield any type; otherwise the leading character
// decides.
func inferTypes(text string) []lang.Type {
	switch {
	case strings.HasPrefix(text, "$"):
		return slices.Collect(lang.Types())

	case strings.HasPrefix(text, `"`), strings.HasPrefix(text, "'"):
		return []lang.Type{lang.TypeString}

	case strings.HasPrefix(text, "["):
		return []lang.Type{lang.TypeList}

	case strings.HasPrefix(text, "{"):
		return []lang.Type{lang.TypeDict, lang.TypeSet}

	case strings.HasPrefix(text, "("):
		return []lang.Type{lang.TypeInt, lang.TypeFloat, lang.TypeTuple}

	case boolWords[strings.ToLower(text)]:
		return []lang.Type{lang.TypeBool}

	case strings.ContainsAny(text, "0123456789+-*/%"):
		return []lang.Type{lang.TypeInt, lang.TypeFloat}

	default:
		return []lang.Type{lang.TypeString}
	}
}

// evaluate evaluates input against the namespace of p without binding it.
// Input of the form "(type) text" is evaluated as that type. Otherwise the
// types of inferTypes are tried in order and the first that accepts the text
// wins; when none does, the error of the first attempt is returned.
func evaluate(ctx context.Context, p *lang.Parser, input string) (*lang.Value, error) {
	input = strings.TrimSpace(input)

	if m := typePrefix.FindStringSubmatch(input); m != nil {
		if t, err := lang.ParseType(m[1]); err == nil {
			return p.ParseValue(ctx, t, m[2])
		}
	}

	var first error

	for _, t := range inferTypes(input) {
		v, err := p.ParseValue(ctx, t, input)
		if err == nil {
			return v, nil
		}

		if first == nil {
			first = err
		}
	}

	return nil, first
}

// formatResult renders an evaluated value with its type.
func formatResult(v *lang.Value) string {
	return fmt.Sprintf("(%s) %s", v.Type, v.Literal())
}

// synopsis describes the arguments of each control command that takes any.
type synopsis struct {
	usage string
	args  int
}

var synopses = map[string]synopsis{
	"get": {"get NAME", 1},
	"set": {"set NAME VALUE", 2},
	"new": {"new NAME TYPE VALUE", 3},
	"rm":  {"rm NAME", 1},
}

// runCommand executes a control command that only reads or mutates the
// namespace and returns its output.
func runCommand(ctx context.Context, p *lang.Parser, name string, args []string) (string, error) {
	if syn, ok := synopses[name]; ok && len(args) < syn.args {
		return "", fmt.Errorf("%w: %s", ErrUsage, syn.usage)
	}

	switch name {
	case "help":
		return helpMessage(), nil

	case "list":
		return listVariables(p), nil

	case "consts":
		return listConstants(p), nil

	case "get":
		v, err := p.GetVar(args[0])
		if err != nil {
			return "", err
		}

		return v.Declaration(), nil

	case "set":
		if err := p.EditVarValue(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
			return "", err
		}

		return describe(p, args[0], "updated"), nil

	case "new":
		t, err := lang.ParseType(args[1])
		if err != nil {
			return "", err
		}

		if err := p.CreateVar(ctx, args[0], t, strings.Join(args[2:], " ")); err != nil {
			return "", err
		}

		return describe(p, args[0], "created"), nil

	case "rm":
		if err := p.RemoveVar(ctx, args[0]); err != nil {
			return "", err
		}

		return args[0] + " removed", nil

	default:
		return "", fmt.Errorf("%w: %s (try 'help')", ErrUnknown, name)
	}
}

func describe(p *lang.Parser, name, verb string) string {
	v, err := p.GetVar(name)
	if err != nil {
		return name + " " + verb
	}

	return v.Declaration() + " " + verb
}

func listVariables(p *lang.Parser) string {
	var b strings.Builder

	for v := range p.Variables() {
		head := fmt.Sprintf("%s(%s)", v.Name, v.Type)
		fmt.Fprintf(&b, "  %s %s\n", head, hintStyle.Render(ellipsize(v.Value.Literal(), maxPreview)))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func listConstants(p *lang.Parser) string {
	consts := p.Constants()

	var b strings.Builder

	for _, name := range slices.Sorted(maps.Keys(consts)) {
		v := consts[name]
		fmt.Fprintf(&b, "  const %s(%s) = %s\n", name, v.Type, v.Literal())
	}

	return strings.TrimSuffix(b.String(), "\n")
}
