// Package export implements the token export engine: selecting the mode
// collection, filtering base tokens, resolving alias chains to terminal
// colors, and assembling the export result.
package export

import (
	"context"
	"fmt"

	"tokenplane/host"
	"tokenplane/model"
)

// Runner executes export runs against a host store.
type Runner struct {
	host host.Host
	sink Sink
}

// NewRunner creates a runner. sink may be nil to silence diagnostics.
func NewRunner(h host.Host, sink Sink) *Runner {
	return &Runner{host: h, sink: sink}
}

// Run executes one export run.
func (r *Runner) Run(ctx context.Context) (*model.ExportResult, error) {
	return r.RunWithProgress(ctx, nil)
}

// RunWithProgress executes one export run with staged progress
// callbacks. The run is strictly sequential: every host round-trip is
// awaited in program order, variables are resolved one at a time, and
// the first host failure aborts the run. Variables that fail to resolve
// in either mode are dropped and the run continues.
func (r *Runner) RunWithProgress(ctx context.Context, progress func(stage string, message string)) (*model.ExportResult, error) {
	if progress == nil {
		progress = func(_ string, _ string) {}
	}

	progress("collections", "Fetching collections...")
	collections, err := r.host.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch collections: %w", err)
	}

	chosen, err := SelectCollection(collections, r.sink)
	if err != nil {
		return nil, err
	}
	lightID, darkID, err := RequireLightDark(chosen)
	if err != nil {
		return nil, err
	}

	progress("variables", fmt.Sprintf("Fetching variables of %q...", chosen.Name))
	vars, err := r.host.ColorVariables(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch variables: %w", err)
	}
	candidates := FilterVariables(vars, chosen.ID)

	resolver := NewResolver(r.host, r.sink)
	var resolved []model.ResolvedVariable

	for i := range candidates {
		v := &candidates[i]
		progress("resolve", fmt.Sprintf("Resolving %s (%d/%d)...", v.Name, i+1, len(candidates)))

		light, err := resolver.Resolve(ctx, v, lightID, map[string]bool{})
		if err != nil {
			return nil, err
		}
		dark, err := resolver.Resolve(ctx, v, darkID, map[string]bool{})
		if err != nil {
			return nil, err
		}

		// A token is exported only when both modes produced a terminal
		// color; partial entries never reach the output.
		if light == "" || dark == "" {
			emit(r.sink, Event{Kind: EventDropped, Variable: v.Name})
			continue
		}

		resolved = append(resolved, model.ResolvedVariable{
			Name:      v.Name,
			CleanName: CleanName(v.Name),
			Light:     light,
			Dark:      dark,
		})
	}

	if len(resolved) == 0 {
		return nil, &NoDataError{
			Message: fmt.Sprintf("no exportable variables in %q: tokens must be named %s* and resolve in both light and dark modes", chosen.Name, ExportPrefix),
		}
	}

	progress("render", fmt.Sprintf("Resolved %d variables", len(resolved)))
	return &model.ExportResult{
		CollectionName: chosen.Name,
		Variables:      resolved,
	}, nil
}
