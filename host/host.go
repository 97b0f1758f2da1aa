// Package host defines the query boundary to the design tool's variable
// store and a JSON-document-backed implementation of it.
package host

import (
	"context"

	"tokenplane/model"
)

// Host is the asynchronous query surface the export engine reads the
// variable store through. Lookups by id distinguish "absent" (nil, nil)
// from a failed round-trip (non-nil error); errors abort the run.
type Host interface {
	// Collections enumerates all variable collections.
	Collections(ctx context.Context) ([]model.Collection, error)

	// ColorVariables enumerates all color-typed variables store-wide.
	ColorVariables(ctx context.Context) ([]model.Variable, error)

	// VariableByID fetches a variable by id, nil if absent.
	VariableByID(ctx context.Context, id string) (*model.Variable, error)

	// CollectionByID fetches a collection by id, nil if absent.
	CollectionByID(ctx context.Context, id string) (*model.Collection, error)
}
