package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters marks a parameter list that cannot be queried.
var ErrInvalidParameters = errors.New("invalid parameters")

// TerritoryCount is the number of distinct stations of one territory that
// reported every requested parameter at a timestep. Territory is nil for
// stations with no known territory.
type TerritoryCount struct {
	Territory *string `json:"territory"`
	Stations  int     `json:"stations"`
}

// ValidateParameters checks that every name is an observation column and
// returns the canonical names, without duplicates.
func ValidateParameters(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: none requested", ErrInvalidParameters)
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		p, ok := LookupParameter(n)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported parameter %q", ErrInvalidParameters, n)
		}
		if !seen[p.Name] {
			seen[p.Name] = true
			out = append(out, p.Name)
		}
	}
	return out, nil
}
