package tag

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Importer performs the one-shot bulk import of a declarative YAML
// tag-definition file into the repository. It runs blocking at startup,
// before polling begins.
//
// The file maps tag identifiers to definition maps:
//
//	0414c8f2ab6180:
//	  name: Front door
//	  type: webhook
//	  added_url: http://hub.local/arrive
//
// Reserved keys are extracted to dedicated record fields: name or _name
// (name wins), description or desc (description wins), and type. Whatever
// remains becomes the record's attribute map.
//
// The import is destructive: when the file's modification time is newer
// than the most recent persisted record, the entire store is replaced with
// the file's contents.
type Importer struct {
	repo     Repository
	registry *Registry
	path     string
	logger   Logger
}

// NewImporter creates an importer for the given definition file path.
// An empty path disables importing.
func NewImporter(repo Repository, registry *Registry, path string) *Importer {
	return &Importer{
		repo:     repo,
		registry: registry,
		path:     path,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the importer.
func (im *Importer) SetLogger(logger Logger) {
	im.logger = logger
}

// Run imports the definition file if it is newer than the store. A missing
// or unconfigured file is a silent no-op.
func (im *Importer) Run(ctx context.Context) error {
	if im.path == "" {
		return nil
	}

	info, err := os.Stat(im.path)
	if err != nil {
		if os.IsNotExist(err) {
			im.logger.Debug("no tag definition file, skipping import", "path", im.path)
			return nil
		}
		return fmt.Errorf("checking tag definition file: %w", err)
	}

	lastDB, err := im.repo.LastUpdatedTime(ctx)
	if err != nil {
		return fmt.Errorf("checking store update time: %w", err)
	}

	if !info.ModTime().After(lastDB) {
		im.logger.Debug("tag store newer than definition file, skipping import",
			"file_mtime", info.ModTime(), "store_updated", lastDB)
		return nil
	}

	recs, err := im.load()
	if err != nil {
		return err
	}

	if err := im.repo.ReplaceAll(ctx, recs); err != nil {
		return fmt.Errorf("replacing tag store: %w", err)
	}
	im.registry.InvalidateCache()

	im.logger.Info("tag definitions imported", "path", im.path, "count", len(recs))
	return nil
}

// load parses the YAML definition file into records.
func (im *Importer) load() ([]Record, error) {
	data, err := os.ReadFile(im.path)
	if err != nil {
		return nil, fmt.Errorf("reading tag definition file: %w", err)
	}

	var defs map[string]map[string]any
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing tag definition file: %w", err)
	}

	recs := make([]Record, 0, len(defs))
	for id, def := range defs {
		recs = append(recs, recordFromDefinition(id, def))
	}
	return recs, nil
}

// recordFromDefinition extracts the reserved keys from a definition map and
// folds the remainder into the record's attributes. The map is consumed.
func recordFromDefinition(id string, def map[string]any) Record {
	if def == nil {
		def = map[string]any{}
	}

	name := popString(def, "_name")
	if v := popString(def, "name"); v != "" {
		name = v
	}

	description := popString(def, "desc")
	if v := popString(def, "description"); v != "" {
		description = v
	}

	typeName := popString(def, "type")

	return Record{
		ID:          id,
		Name:        name,
		Description: description,
		Type:        typeName,
		Attr:        def,
	}
}

// popString removes a key from the map and returns it as a string, empty
// when absent or not a string.
func popString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	s, _ := v.(string)
	return s
}
