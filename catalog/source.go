package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source supplies raw course records. Implementations include FileSource and
// the PostgreSQL-backed db.Database.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// FileSource reads records from a JSON or YAML file, chosen by extension.
type FileSource struct {
	Path string
}

func (s FileSource) Records(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var records []Record
	if err := Decode(s.Path, data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", s.Path, err)
	}
	return records, nil
}

// Load pulls records from a source and builds a Catalog.
func Load(ctx context.Context, source Source, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	records, err := source.Records(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := FromRecords(records)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded course catalog", slog.Int("courses", catalog.Len()), slog.Int("subjects", len(catalog.Subjects())))
	return catalog, nil
}

// Decode unmarshals JSON or YAML depending on the file extension. YAML maps are
// converted to map[string]any so nested requisite structures look the same
// regardless of the input format.
func Decode(path string, data []byte, out any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return err
		}
		normalized, err := json.Marshal(stringKeys(generic))
		if err != nil {
			return err
		}
		return json.Unmarshal(normalized, out)
	default:
		return json.Unmarshal(data, out)
	}
}

func stringKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = stringKeys(item)
		}
		return v
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, item := range v {
			converted[fmt.Sprint(key)] = stringKeys(item)
		}
		return converted
	case []any:
		for i, item := range v {
			v[i] = stringKeys(item)
		}
		return v
	default:
		return v
	}
}
