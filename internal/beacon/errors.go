package beacon

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidOrbitParametersError reports Beacon parameters that cannot be
// synthesized. Computed carries the intermediate values derived before the
// failure so the run can be diagnosed without repeating it.
type InvalidOrbitParametersError struct {
	Field    string
	Value    any
	Reason   string
	Computed map[string]float64
}

func (e *InvalidOrbitParametersError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid beacon orbit: %s=%v: %s", e.Field, e.Value, e.Reason)
	if len(e.Computed) > 0 {
		keys := make([]string, 0, len(e.Computed))
		for k := range e.Computed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%g", k, e.Computed[k])
		}
		b.WriteString(")")
	}
	return b.String()
}
