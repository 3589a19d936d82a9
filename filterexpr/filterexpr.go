/*
Copyright © 2016 the malstroem authors.
This file is part of malstroem.

malstroem is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

malstroem is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with malstroem.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package filterexpr compiles the bluespot-keep filter expression (used by
// the pourpoint stage to drop insignificant depressions) into a reusable
// predicate over a bluespot's min/max/sum/count/area/volume.
//
// Grounded on the govaluate usage in the teacher's Outputter
// (NewEvaluableExpressionWithFunctions, expression.Vars() used to validate
// which identifiers an expression may reference): compiled expressions are
// checked against a fixed identifier allowlist before they are ever
// evaluated, so a filter string can only read the fields it is documented
// to read.
package filterexpr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/malstroem/pourpoint"
)

// allowedVars are the only identifiers a filter expression may reference.
var allowedVars = map[string]bool{
	"min": true, "max": true, "sum": true, "count": true,
	"area": true, "volume": true, "maxdepth": true,
}

// Filter is a compiled bluespot-keep expression.
type Filter struct {
	expr *govaluate.EvaluableExpression
}

// Compile parses expr and validates that it references only the allowed
// bluespot attribute identifiers. A bare "=" is accepted as an alias for
// "==", and the words "and"/"or" for "&&"/"||", since govaluate's own
// grammar only tokenizes the latter forms.
func Compile(expr string) (*Filter, error) {
	normalized := normalizeEquality(expr)
	normalized = regexp.MustCompile(`\band\b`).ReplaceAllString(normalized, "&&")
	normalized = regexp.MustCompile(`\bor\b`).ReplaceAllString(normalized, "||")
	compiled, err := govaluate.NewEvaluableExpression(normalized)
	if err != nil {
		return nil, fmt.Errorf("malstroem: filterexpr: %w", err)
	}
	for _, v := range compiled.Vars() {
		if !allowedVars[v] {
			return nil, fmt.Errorf("malstroem: filterexpr: unknown identifier %q", v)
		}
	}
	return &Filter{expr: compiled}, nil
}

// normalizeEquality rewrites every standalone "=" in expr to "==", leaving
// "==", "!=", "<=" and ">=" untouched.
func normalizeEquality(expr string) string {
	runes := []rune(expr)
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '=' {
			b.WriteRune(c)
			continue
		}
		var prev, next rune
		if i > 0 {
			prev = runes[i-1]
		}
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch {
		case next == '=':
			b.WriteString("==")
			i++
		case prev == '!' || prev == '<' || prev == '>' || prev == '=':
			b.WriteRune('=')
		default:
			b.WriteString("==")
		}
	}
	return b.String()
}

// Func returns a pourpoint.FilterFunc backed by the compiled expression. A
// non-boolean evaluation result or an evaluation error causes the bluespot
// to be rejected rather than panicking.
func (f *Filter) Func() pourpoint.FilterFunc {
	return func(s pourpoint.BluespotStats) bool {
		keep, ok := f.Eval(s)
		return ok && keep
	}
}

// Eval evaluates the filter against s, returning ok=false if the
// expression's result was not a boolean or evaluation failed.
func (f *Filter) Eval(s pourpoint.BluespotStats) (keep bool, ok bool) {
	params := map[string]interface{}{
		"min":      s.Min,
		"max":      s.Max,
		"sum":      s.Sum,
		"count":    float64(s.Count),
		"area":     s.Area,
		"volume":   s.Volume,
		"maxdepth": s.Max,
	}
	result, err := f.expr.Evaluate(params)
	if err != nil {
		return false, false
	}
	b, isBool := result.(bool)
	return b, isBool
}
