// seed.go: pre-seeding session bindings from YAML.
//
// Hosts can hand a session a small YAML document mapping identifiers to
// scalars or arrays, e.g.
//
//	primes: [2, 3, 5, 7, 11]
//	greeting: "hello"
//	strict: true
//
// so that a library-supplied name resolves to a fixed value from the first
// Eval call on.
package exprlang

import (
	"fmt"
	"regexp"

	"github.com/goccy/go-yaml"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SeedYAML parses a YAML mapping of names to values and defines each binding
// in the session. Keys must be valid identifiers; values must be numbers,
// strings, booleans, or (nested) arrays of those.
func (s *Session) SeedYAML(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	for name, raw := range doc {
		if !identRe.MatchString(name) {
			return fmt.Errorf("seed: %q is not a valid identifier", name)
		}
		v, err := seedValue(name, raw)
		if err != nil {
			return err
		}
		s.Define(name, v)
	}
	return nil
}

func seedValue(name string, raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case bool:
		return Bool(x), nil
	case string:
		return Str(x), nil
	case int:
		return Num(float64(x)), nil
	case int64:
		return Num(float64(x)), nil
	case uint64:
		return Num(float64(x)), nil
	case float64:
		return Num(x), nil
	case []interface{}:
		elems := make([]Value, 0, len(x))
		for _, e := range x {
			v, err := seedValue(name, e)
			if err != nil {
				return Absent, err
			}
			elems = append(elems, v)
		}
		return Arr(elems), nil
	default:
		return Absent, fmt.Errorf("seed: %s: unsupported value of type %T", name, raw)
	}
}
