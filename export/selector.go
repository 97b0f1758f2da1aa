package export

import (
	"fmt"
	"strings"

	"tokenplane/model"
)

// ExportPrefix marks variables that are exportable base tokens.
const ExportPrefix = "base/"

// SelectCollection picks the source-of-truth collection: the first whose
// display name contains "mode" (case-insensitive). Additional matches
// are reported through the sink and ignored.
func SelectCollection(collections []model.Collection, sink Sink) (model.Collection, error) {
	var matches []model.Collection
	for _, c := range collections {
		if strings.Contains(strings.ToLower(c.Name), "mode") {
			matches = append(matches, c)
		}
	}

	if len(matches) == 0 {
		return model.Collection{}, &ConfigurationError{
			Message: fmt.Sprintf("no collection with %q in its name found among %d collections", "mode", len(collections)),
		}
	}
	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, c := range matches {
			names = append(names, c.Name)
		}
		emit(sink, Event{
			Kind:   EventAmbiguousCollection,
			Detail: fmt.Sprintf("multiple mode collections (%s), using %q", strings.Join(names, ", "), matches[0].Name),
		})
	}

	return matches[0], nil
}

// lightDarkModeIDs returns the ids of the modes named "light" and "dark"
// (case-insensitive), if the collection defines both.
func lightDarkModeIDs(c model.Collection) (lightID, darkID string, ok bool) {
	for _, m := range c.Modes {
		switch strings.ToLower(m.Name) {
		case "light":
			lightID = m.ID
		case "dark":
			darkID = m.ID
		}
	}
	return lightID, darkID, lightID != "" && darkID != ""
}

// RequireLightDark returns the light and dark mode ids of the chosen
// collection, or a ConfigurationError naming the modes that were found.
func RequireLightDark(c model.Collection) (lightID, darkID string, err error) {
	lightID, darkID, ok := lightDarkModeIDs(c)
	if !ok {
		found := make([]string, 0, len(c.Modes))
		for _, m := range c.Modes {
			found = append(found, m.Name)
		}
		return "", "", &ConfigurationError{
			Message: fmt.Sprintf("collection %q must define modes named \"light\" and \"dark\", found: %s",
				c.Name, strings.Join(found, ", ")),
		}
	}
	return lightID, darkID, nil
}

// FilterVariables selects the export candidates: variables belonging to
// the chosen collection whose name carries the export prefix. Everything
// else is silently excluded.
func FilterVariables(vars []model.Variable, collectionID string) []model.Variable {
	var out []model.Variable
	for _, v := range vars {
		if v.CollectionID != collectionID {
			continue
		}
		if !strings.HasPrefix(v.Name, ExportPrefix) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// CleanName derives the export-safe name: the prefix is stripped and
// path separators become hyphens, flattening "base/chart/1" to "chart-1".
func CleanName(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, ExportPrefix), "/", "-")
}
