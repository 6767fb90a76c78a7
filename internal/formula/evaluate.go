package formula

import "math"

// Eval evaluates a parsed expression against a variable binding map.
// Pure function of its inputs: same expression and bindings always produce
// the same result, which keeps dashboard and report numbers in agreement.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return 0, err
	}
	// Zero denominators are caught at the division site; anything
	// non-finite surviving to here is overflow or an indeterminate form.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFiniteResult
	}
	return v, nil
}

// Evaluate parses and evaluates a formula in one step.
func Evaluate(input string, vars map[string]float64) (float64, error) {
	expr, err := Parse(input)
	if err != nil {
		return 0, err
	}
	return expr.Eval(vars)
}

// Variables returns the distinct identifier tokens referenced by a formula,
// in first-appearance order. Used to report which required data a rule
// depends on.
func Variables(input string) ([]string, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, t := range tokens {
		if t.typ != tokIdent {
			continue
		}
		if _, ok := seen[t.value]; ok {
			continue
		}
		seen[t.value] = struct{}{}
		names = append(names, t.value)
	}
	return names, nil
}
