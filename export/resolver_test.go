package export

import (
	"context"
	"errors"
	"testing"

	"tokenplane/model"
)

// fakeHost serves host queries from in-memory slices and counts by-id
// lookups so tests can bound recursion.
type fakeHost struct {
	collections []model.Collection
	variables   []model.Variable

	variableLookups int
	variableErr     error
	collectionErr   error
	variablesCalled bool
}

func (f *fakeHost) Collections(ctx context.Context) ([]model.Collection, error) {
	return f.collections, nil
}

func (f *fakeHost) ColorVariables(ctx context.Context) ([]model.Variable, error) {
	f.variablesCalled = true
	return f.variables, nil
}

func (f *fakeHost) VariableByID(ctx context.Context, id string) (*model.Variable, error) {
	f.variableLookups++
	if f.variableErr != nil {
		return nil, f.variableErr
	}
	for i := range f.variables {
		if f.variables[i].ID == id {
			return &f.variables[i], nil
		}
	}
	return nil, nil
}

func (f *fakeHost) CollectionByID(ctx context.Context, id string) (*model.Collection, error) {
	if f.collectionErr != nil {
		return nil, f.collectionErr
	}
	for i := range f.collections {
		if f.collections[i].ID == id {
			return &f.collections[i], nil
		}
	}
	return nil, nil
}

// recordSink collects emitted events for assertions.
type recordSink struct {
	events []Event
}

func (s *recordSink) Emit(e Event) { s.events = append(s.events, e) }

func (s *recordSink) kinds() []EventKind {
	out := make([]EventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

var modeCollection = model.Collection{
	ID:   "c-mode",
	Name: "Mode",
	Modes: []model.Mode{
		{ID: "m-light", Name: "Light"},
		{ID: "m-dark", Name: "Dark"},
	},
}

func hexValue(s string) model.ColorValue {
	return model.ColorValue{Kind: model.KindHex, Hex: s}
}

func aliasValue(id string) model.ColorValue {
	return model.ColorValue{Kind: model.KindAlias, AliasID: id}
}

func TestResolveTerminalRGB(t *testing.T) {
	t.Parallel()

	v := model.Variable{
		ID:           "v1",
		Name:         "base/background",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{
			"m-light": {Kind: model.KindRGB, RGB: model.RGB{R: 1, G: 1, B: 1}},
		},
	}
	f := &fakeHost{collections: []model.Collection{modeCollection}, variables: []model.Variable{v}}
	r := NewResolver(f, nil)

	got, err := r.Resolve(context.Background(), &v, "m-light", map[string]bool{})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "oklch(1 0 0)" {
		t.Fatalf("Resolve() = %q, want %q", got, "oklch(1 0 0)")
	}
	if f.variableLookups != 0 {
		t.Fatalf("terminal RGB resolution made %d host lookups, want 0", f.variableLookups)
	}
}

func TestResolveTerminalStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		want     string
		wantKind EventKind
	}{
		{name: "six digit hex", value: "#020817", want: "oklch(0.136 0.036 259.2)"},
		{name: "three digit hex", value: "#abc", want: "oklch(0.784 0.031 248.3)"},
		{name: "uppercase hex", value: "#FFFFFF", want: "oklch(1 0 0)"},
		{name: "not a color", value: "tomato", want: "", wantKind: EventBadHex},
		{name: "missing hash", value: "aabbcc", want: "", wantKind: EventBadHex},
		{name: "four digit hex", value: "#abcd", want: "", wantKind: EventBadHex},
		{name: "five digit hex", value: "#abcde", want: "", wantKind: EventBadHex},
		{name: "seven digit hex", value: "#aabbccd", want: "", wantKind: EventBadHex},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := model.Variable{
				ID:           "v1",
				Name:         "base/x",
				CollectionID: "c-mode",
				ValuesByMode: map[string]model.ColorValue{"m-light": hexValue(tt.value)},
			}
			sink := &recordSink{}
			r := NewResolver(&fakeHost{collections: []model.Collection{modeCollection}}, sink)

			got, err := r.Resolve(context.Background(), &v, "m-light", map[string]bool{})
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.value, got, tt.want)
			}
			if tt.wantKind != "" {
				if len(sink.events) != 1 || sink.events[0].Kind != tt.wantKind {
					t.Fatalf("events = %v, want one %s", sink.kinds(), tt.wantKind)
				}
			}
		})
	}
}

func TestResolveMissingMode(t *testing.T) {
	t.Parallel()

	v := model.Variable{
		ID:           "v1",
		Name:         "base/x",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{"m-light": hexValue("#ffffff")},
	}
	sink := &recordSink{}
	r := NewResolver(&fakeHost{collections: []model.Collection{modeCollection}}, sink)

	got, err := r.Resolve(context.Background(), &v, "m-dark", map[string]bool{})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("Resolve() = %q, want unresolved", got)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != EventMissingMode {
		t.Fatalf("events = %v, want one %s", sink.kinds(), EventMissingMode)
	}
}

func TestResolveCycle(t *testing.T) {
	t.Parallel()

	a := model.Variable{
		ID:           "a1",
		Name:         "base/a",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{"m-dark": aliasValue("b1")},
	}
	b := model.Variable{
		ID:           "b1",
		Name:         "base/b",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{"m-dark": aliasValue("a1")},
	}
	f := &fakeHost{collections: []model.Collection{modeCollection}, variables: []model.Variable{a, b}}
	sink := &recordSink{}
	r := NewResolver(f, sink)

	for _, start := range []model.Variable{a, b} {
		f.variableLookups = 0
		got, err := r.Resolve(context.Background(), &start, "m-dark", map[string]bool{})
		if err != nil {
			t.Fatalf("Resolve(%s) unexpected error: %v", start.Name, err)
		}
		if got != "" {
			t.Fatalf("Resolve(%s) = %q, want unresolved on cycle", start.Name, got)
		}
		// The guard fires on the second visit: one hop to the peer, one
		// hop back, then stop.
		if f.variableLookups > 2 {
			t.Fatalf("cycle resolution made %d lookups, want at most 2", f.variableLookups)
		}
	}

	foundCycle := false
	for _, e := range sink.events {
		if e.Kind == EventCycle {
			foundCycle = true
		}
	}
	if !foundCycle {
		t.Fatalf("events = %v, want a %s event", sink.kinds(), EventCycle)
	}
}

func TestResolveCorrelatesModeByName(t *testing.T) {
	t.Parallel()

	// The Theme collection uses its own mode ids; resolution of the
	// Mode collection's dark value must land on Theme's dark mode by
	// name, never on Theme's light value or the caller's raw mode id.
	theme := model.Collection{
		ID:   "c-theme",
		Name: "Theme",
		Modes: []model.Mode{
			{ID: "t-light", Name: "light"},
			{ID: "t-dark", Name: "dark"},
		},
	}
	w := model.Variable{
		ID:           "w1",
		Name:         "primitives/surface",
		CollectionID: "c-theme",
		ValuesByMode: map[string]model.ColorValue{
			"t-light": hexValue("#ffffff"),
			"t-dark":  hexValue("#020817"),
			// A value under the caller's raw mode id; correlation must
			// never pick this one.
			"m-dark": hexValue("#ff0000"),
		},
	}
	v := model.Variable{
		ID:           "v1",
		Name:         "base/background",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{
			"m-light": aliasValue("w1"),
			"m-dark":  aliasValue("w1"),
		},
	}
	f := &fakeHost{
		collections: []model.Collection{modeCollection, theme},
		variables:   []model.Variable{v, w},
	}
	r := NewResolver(f, nil)

	dark, err := r.Resolve(context.Background(), &v, "m-dark", map[string]bool{})
	if err != nil {
		t.Fatalf("Resolve(dark) unexpected error: %v", err)
	}
	if want := "oklch(0.136 0.036 259.2)"; dark != want {
		t.Fatalf("Resolve(dark) = %q, want %q (Theme's dark value)", dark, want)
	}

	light, err := r.Resolve(context.Background(), &v, "m-light", map[string]bool{})
	if err != nil {
		t.Fatalf("Resolve(light) unexpected error: %v", err)
	}
	if want := "oklch(1 0 0)"; light != want {
		t.Fatalf("Resolve(light) = %q, want %q (Theme's light value)", light, want)
	}
}

func TestResolveSingleModeCollection(t *testing.T) {
	t.Parallel()

	constants := model.Collection{
		ID:    "c-const",
		Name:  "Constants",
		Modes: []model.Mode{{ID: "k-1", Name: "Value"}},
	}
	u := model.Variable{
		ID:           "u1",
		Name:         "constants/red",
		CollectionID: "c-const",
		ValuesByMode: map[string]model.ColorValue{"k-1": hexValue("#ff0000")},
	}
	v := model.Variable{
		ID:           "v1",
		Name:         "base/accent",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{
			"m-light": aliasValue("u1"),
			"m-dark":  aliasValue("u1"),
		},
	}
	f := &fakeHost{
		collections: []model.Collection{modeCollection, constants},
		variables:   []model.Variable{v, u},
	}
	r := NewResolver(f, nil)

	// The caller's mode id is ignored entirely; both modes read the one
	// mode the Constants collection has.
	for _, modeID := range []string{"m-light", "m-dark"} {
		got, err := r.Resolve(context.Background(), &v, modeID, map[string]bool{})
		if err != nil {
			t.Fatalf("Resolve(%s) unexpected error: %v", modeID, err)
		}
		if want := "oklch(0.628 0.258 29.2)"; got != want {
			t.Fatalf("Resolve(%s) = %q, want %q", modeID, got, want)
		}
	}
}

func TestResolveDanglingAlias(t *testing.T) {
	t.Parallel()

	v := model.Variable{
		ID:           "v1",
		Name:         "base/x",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{"m-light": aliasValue("gone")},
	}
	sink := &recordSink{}
	r := NewResolver(&fakeHost{collections: []model.Collection{modeCollection}, variables: []model.Variable{v}}, sink)

	got, err := r.Resolve(context.Background(), &v, "m-light", map[string]bool{})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("Resolve() = %q, want unresolved for dangling alias", got)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != EventDanglingAlias {
		t.Fatalf("events = %v, want one %s", sink.kinds(), EventDanglingAlias)
	}
}

func TestResolveUnrecognizedValue(t *testing.T) {
	t.Parallel()

	v := model.Variable{
		ID:           "v1",
		Name:         "base/x",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{"m-light": {Kind: model.KindUnrecognized}},
	}
	sink := &recordSink{}
	r := NewResolver(&fakeHost{collections: []model.Collection{modeCollection}}, sink)

	got, err := r.Resolve(context.Background(), &v, "m-light", map[string]bool{})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("Resolve() = %q, want unresolved for unrecognized value", got)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != EventUnrecognized {
		t.Fatalf("events = %v, want one %s", sink.kinds(), EventUnrecognized)
	}
}

func TestResolveHostFailurePropagates(t *testing.T) {
	t.Parallel()

	hostErr := errors.New("store unreachable")
	v := model.Variable{
		ID:           "v1",
		Name:         "base/x",
		CollectionID: "c-mode",
		ValuesByMode: map[string]model.ColorValue{"m-light": aliasValue("w1")},
	}
	f := &fakeHost{collections: []model.Collection{modeCollection}, variables: []model.Variable{v}, variableErr: hostErr}
	r := NewResolver(f, nil)

	_, err := r.Resolve(context.Background(), &v, "m-light", map[string]bool{})
	if !errors.Is(err, hostErr) {
		t.Fatalf("Resolve() error = %v, want wrapped %v", err, hostErr)
	}
}
