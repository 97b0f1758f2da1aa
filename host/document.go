package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tokenplane/model"
)

// DocumentStore serves host queries from a decoded document snapshot of
// the design tool's variable store. Per-mode values are classified into
// the ColorValue union once, at load time.
type DocumentStore struct {
	collections []model.Collection
	variables   []model.Variable

	collectionsByID map[string]*model.Collection
	variablesByID   map[string]*model.Variable
}

type rawDocument struct {
	Collections []model.Collection `json:"collections"`
	Variables   []rawVariable      `json:"variables"`
}

type rawVariable struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	CollectionID string                     `json:"collectionId"`
	ResolvedType string                     `json:"resolvedType"`
	ValuesByMode map[string]json.RawMessage `json:"valuesByMode"`
}

// LoadDocument reads a variable document from disk.
func LoadDocument(path string) (*DocumentStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument decodes a variable document from JSON. Variables whose
// resolved type is present and not COLOR are excluded up front; this
// store only ever answers color queries.
func ParseDocument(data []byte) (*DocumentStore, error) {
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	s := &DocumentStore{
		collections:     doc.Collections,
		collectionsByID: make(map[string]*model.Collection, len(doc.Collections)),
		variablesByID:   make(map[string]*model.Variable),
	}
	for i := range s.collections {
		s.collectionsByID[s.collections[i].ID] = &s.collections[i]
	}

	for _, raw := range doc.Variables {
		if raw.ResolvedType != "" && raw.ResolvedType != "COLOR" {
			continue
		}
		v := model.Variable{
			ID:           raw.ID,
			Name:         raw.Name,
			CollectionID: raw.CollectionID,
			ValuesByMode: make(map[string]model.ColorValue, len(raw.ValuesByMode)),
		}
		for modeID, rawVal := range raw.ValuesByMode {
			v.ValuesByMode[modeID] = model.ClassifyValue(rawVal)
		}
		s.variables = append(s.variables, v)
	}
	for i := range s.variables {
		s.variablesByID[s.variables[i].ID] = &s.variables[i]
	}

	return s, nil
}

// Collections implements Host.
func (s *DocumentStore) Collections(ctx context.Context) ([]model.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.collections, nil
}

// ColorVariables implements Host.
func (s *DocumentStore) ColorVariables(ctx context.Context) ([]model.Variable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.variables, nil
}

// VariableByID implements Host.
func (s *DocumentStore) VariableByID(ctx context.Context, id string) (*model.Variable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.variablesByID[id], nil
}

// CollectionByID implements Host.
func (s *DocumentStore) CollectionByID(ctx context.Context, id string) (*model.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.collectionsByID[id], nil
}
