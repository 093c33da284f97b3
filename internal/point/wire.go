package point

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/activeharmony/harmony/internal/value"
)

// WireTerm is one tagged term in the wire encoding of a Point: a type
// tag ("int", "real", "string") plus its literal.
type WireTerm struct {
	Kind    string
	Literal string
}

// Encode renders a Point as its wire form: the point id followed by a
// sequence of type-tagged terms. Real terms use the round-trippable
// hex float form (strconv's 'x' verb, the %a equivalent) so transport
// framing never loses precision.
func Encode(p *Point) (id uint32, terms []WireTerm) {
	out := make([]WireTerm, len(p.Terms))
	for i, t := range p.Terms {
		switch t.Kind() {
		case value.Int:
			out[i] = WireTerm{Kind: "int", Literal: strconv.FormatInt(t.Int(), 10)}
		case value.Real:
			out[i] = WireTerm{Kind: "real", Literal: strconv.FormatFloat(t.Real(), 'x', -1, 64)}
		case value.String:
			out[i] = WireTerm{Kind: "string", Literal: t.Str()}
		}
	}
	return p.ID, out
}

// Decode rebuilds a Point from its wire form.
func Decode(id uint32, terms []WireTerm) (*Point, error) {
	vals := make([]value.Value, len(terms))
	for i, t := range terms {
		switch t.Kind {
		case "int":
			n, err := strconv.ParseInt(t.Literal, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("point: decode term %d: %w", i, err)
			}
			vals[i] = value.OfInt(n)
		case "real":
			r, err := strconv.ParseFloat(t.Literal, 64)
			if err != nil {
				return nil, fmt.Errorf("point: decode term %d: %w", i, err)
			}
			vals[i] = value.OfReal(r)
		case "string":
			vals[i] = value.OfString(t.Literal)
		default:
			return nil, fmt.Errorf("point: decode term %d: unknown wire kind %q", i, t.Kind)
		}
	}
	return &Point{ID: id, Terms: vals}, nil
}

// FormatUnified renders the point-log line format spec.md §6 names:
// "Point #<id>: (v1,v2,...) => (o1,...) => <unified>" with both
// decimal and hex real rendering so the line round-trips losslessly.
func FormatUnified(p *Point, perf Performance) string {
	var terms strings.Builder
	for i, t := range p.Terms {
		if i > 0 {
			terms.WriteString(",")
		}
		if t.Kind() == value.Real {
			terms.WriteString(fmt.Sprintf("%s(%s)", strconv.FormatFloat(t.Real(), 'g', -1, 64), strconv.FormatFloat(t.Real(), 'x', -1, 64)))
		} else {
			terms.WriteString(t.Format())
		}
	}
	var objs strings.Builder
	for i, o := range perf.Obj {
		if i > 0 {
			objs.WriteString(",")
		}
		objs.WriteString(fmt.Sprintf("%s(%s)", strconv.FormatFloat(o, 'g', -1, 64), strconv.FormatFloat(o, 'x', -1, 64)))
	}
	return fmt.Sprintf("Point #%d: (%s) => (%s) => %s", p.ID, terms.String(), objs.String(),
		strconv.FormatFloat(perf.Unify(), 'g', -1, 64))
}
