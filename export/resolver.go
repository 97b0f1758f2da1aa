package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"tokenplane/color"
	"tokenplane/host"
	"tokenplane/model"
)

// Terminal hex strings must look like a color literal; other strings are
// dropped rather than passed through.
var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{3,6}$`)

// Resolver walks the alias graph to a terminal color for one
// (variable, mode) pair. Each host lookup is an awaited round-trip;
// lookup errors abort the whole run.
type Resolver struct {
	host host.Host
	sink Sink
}

// NewResolver creates a resolver reading through the given host. sink
// may be nil to silence diagnostics.
func NewResolver(h host.Host, sink Sink) *Resolver {
	return &Resolver{host: h, sink: sink}
}

// Resolve returns the OKLCH string for the variable's value in the given
// mode, or "" if the variable cannot be resolved (missing mode, cycle,
// dangling alias, bad value shape). visited accumulates variable ids
// across the whole recursive chain and is never reset within one
// top-level resolution; callers pass a fresh set per (variable, mode).
func (r *Resolver) Resolve(ctx context.Context, v *model.Variable, modeID string, visited map[string]bool) (string, error) {
	value, ok := v.ValuesByMode[modeID]
	if !ok {
		emit(r.sink, Event{Kind: EventMissingMode, Variable: v.Name, ModeID: modeID})
		return "", nil
	}

	// Cycle guard: a repeat visit means an alias loop somewhere in the
	// chain. Checked before the value is inspected so the recursion is
	// bounded even across collections.
	if visited[v.ID] {
		emit(r.sink, Event{Kind: EventCycle, Variable: v.Name, ModeID: modeID})
		return "", nil
	}
	visited[v.ID] = true

	switch value.Kind {
	case model.KindRGB:
		hex := color.RGBToHex(value.RGB.R, value.RGB.G, value.RGB.B)
		return color.ToOklch(hex), nil

	case model.KindHex:
		if !hexPattern.MatchString(value.Hex) {
			emit(r.sink, Event{Kind: EventBadHex, Variable: v.Name, ModeID: modeID, Detail: fmt.Sprintf("value %q", value.Hex)})
			return "", nil
		}
		// The guard admits 4- and 5-digit strings the converter has no
		// reading for; drop those too.
		if n := len(value.Hex); n != 4 && n != 7 {
			emit(r.sink, Event{Kind: EventBadHex, Variable: v.Name, ModeID: modeID, Detail: fmt.Sprintf("unsupported length %q", value.Hex)})
			return "", nil
		}
		return color.ToOklch(value.Hex), nil

	case model.KindAlias:
		target, err := r.host.VariableByID(ctx, value.AliasID)
		if err != nil {
			return "", fmt.Errorf("look up variable %s: %w", value.AliasID, err)
		}
		if target == nil {
			emit(r.sink, Event{Kind: EventDanglingAlias, Variable: v.Name, ModeID: modeID, Detail: fmt.Sprintf("alias target %s", value.AliasID)})
			return "", nil
		}

		targetModeID, err := r.targetMode(ctx, v, modeID, target)
		if err != nil {
			return "", err
		}
		return r.Resolve(ctx, target, targetModeID, visited)

	default:
		emit(r.sink, Event{Kind: EventUnrecognized, Variable: v.Name, ModeID: modeID})
		return "", nil
	}
}

// targetMode decides which mode of the alias target's own collection to
// read. Mode ids are collection-local, so the light/dark concept has to
// be correlated by mode name; single-mode collections have no ambiguity
// and always use their one mode. When neither applies, the source modeID
// is reused against the target collection. That only works when the two
// collections share a mode id space, which independently created
// collections do not; the behavior is kept for compatibility with the
// stores this was built against.
func (r *Resolver) targetMode(ctx context.Context, cur *model.Variable, modeID string, target *model.Variable) (string, error) {
	tc, err := r.host.CollectionByID(ctx, target.CollectionID)
	if err != nil {
		return "", fmt.Errorf("look up collection %s: %w", target.CollectionID, err)
	}

	if tc != nil {
		if lightID, darkID, ok := lightDarkModeIDs(*tc); ok {
			cc, err := r.host.CollectionByID(ctx, cur.CollectionID)
			if err != nil {
				return "", fmt.Errorf("look up collection %s: %w", cur.CollectionID, err)
			}
			if cc != nil {
				switch currentModeName(cc, modeID) {
				case "light":
					return lightID, nil
				case "dark":
					return darkID, nil
				}
			}
			return modeID, nil
		}
		if len(tc.Modes) == 1 {
			return tc.Modes[0].ID, nil
		}
	}

	return modeID, nil
}

func currentModeName(c *model.Collection, modeID string) string {
	for _, m := range c.Modes {
		if m.ID == modeID {
			return strings.ToLower(m.Name)
		}
	}
	return ""
}
