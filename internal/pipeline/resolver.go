package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/synop-ingest/internal/domain"
)

// StationLookup reads stations and their aliases. Misses return domain.ErrNotFound.
type StationLookup interface {
	StationByID(ctx context.Context, wigosID string) (domain.Station, error)
	IdentifierByAlias(ctx context.Context, identifier string) (domain.StationIdentifier, error)
}

// Resolution is the result of resolving a decoded station identifier.
// Resolved is false when neither the primary ids nor the aliases know it.
type Resolution struct {
	Station  domain.Station
	Resolved bool
	ViaAlias bool
}

// StationResolver maps decoded identifiers to stations.
type StationResolver interface {
	Resolve(ctx context.Context, identifier string) (Resolution, error)
}

// Resolver looks an identifier up as a primary WIGOS id first, then as an
// alias whose station is loaded by its primary id.
type Resolver struct {
	lookup StationLookup
}

// NewResolver creates a Resolver over lookup.
func NewResolver(lookup StationLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns an unresolved Resolution, not an error, for unknown
// identifiers. Errors are reserved for lookup failures.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (Resolution, error) {
	station, err := r.lookup.StationByID(ctx, identifier)
	if err == nil {
		return Resolution{Station: station, Resolved: true}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return Resolution{}, fmt.Errorf("lookup station %s: %w", identifier, err)
	}

	alias, err := r.lookup.IdentifierByAlias(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup alias %s: %w", identifier, err)
	}

	station, err = r.lookup.StationByID(ctx, alias.WIGOSID)
	if errors.Is(err, domain.ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup station %s for alias %s: %w", alias.WIGOSID, identifier, err)
	}
	return Resolution{Station: station, Resolved: true, ViaAlias: true}, nil
}
