// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the invocation log to historyDir/export.yaml. It
// supports the same filters as Retrieve; a zero MaxResults exports
// everything.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	invocations, err := s.Retrieve(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.historyDir, "export.yaml")
	data, err := yaml.Marshal(invocations)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the invocation log to historyDir/export.json. It
// supports the same filters as Retrieve; a zero MaxResults exports
// everything.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	invocations, err := s.Retrieve(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.historyDir, "export.json")
	data, err := json.MarshalIndent(invocations, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
