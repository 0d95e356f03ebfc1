// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citegraph/pkg/types"
)

// export is the serialized shape of a whole project.
type export struct {
	Name     string                 `json:"name" yaml:"name"`
	Theme    string                 `json:"research_theme,omitempty" yaml:"research_theme,omitempty"`
	Sessions []Session              `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	Articles []*types.ArticleRecord `json:"articles" yaml:"articles"`
}

func (s *Store) buildExport() (*export, error) {
	articles, err := s.All()
	if err != nil {
		return nil, err
	}
	sessions, err := s.Sessions()
	if err != nil {
		return nil, err
	}
	return &export{
		Name:     s.name,
		Theme:    s.Theme(),
		Sessions: sessions,
		Articles: articles,
	}, nil
}

// ExportJSON writes the whole project as indented JSON.
func (s *Store) ExportJSON(w io.Writer) error {
	ex, err := s.buildExport()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ex); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// ExportYAML writes the whole project as YAML.
func (s *Store) ExportYAML(w io.Writer) error {
	ex, err := s.buildExport()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(ex); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}
