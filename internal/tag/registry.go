package tag

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry maps identifiers to runtime Tags. It wraps a Repository and
// adds a type registry plus an in-memory resolve cache.
//
// The type registry is written only during plugin registration, before
// the polling loop starts, and read-only thereafter. The resolve cache is
// mutex-guarded and reference-stable: resolving the same identifier twice
// without an intervening Delete returns the same Tag instance.
type Registry struct {
	repo      Repository
	factories map[string]Factory
	cache     map[string]Tag
	cacheMu   sync.RWMutex
	logger    Logger
}

// NewRegistry creates a new tag registry backed by the given repository.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:      repo,
		factories: make(map[string]Factory),
		cache:     make(map[string]Tag),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RegisterType adds a factory for a type name. Must be called before
// polling starts; duplicate registration of the same name overwrites
// silently.
func (r *Registry) RegisterType(name string, factory Factory) {
	r.factories[name] = factory
	r.logger.Debug("tag type registered", "type", name)
}

// Types returns the registered type names.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Resolve turns an identifier into a Tag.
//
// On cache miss the record is fetched from the repository: no record
// yields an Unregistered placeholder, a record whose type has no factory
// yields an UnknownType placeholder, otherwise the registered factory
// constructs the Tag. Attribute-validation failures from the factory
// propagate to the caller and nothing is cached.
func (r *Registry) Resolve(ctx context.Context, id string) (Tag, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	t, err := r.build(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	// Another resolver may have raced us; keep the first instance so
	// resolution stays reference-stable.
	if existing, ok := r.cache[id]; ok {
		t = existing
	} else {
		r.cache[id] = t
	}
	r.cacheMu.Unlock()

	return t, nil
}

// build constructs the Tag for an identifier from its record.
func (r *Registry) build(ctx context.Context, id string) (Tag, error) {
	rec, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.Info("unregistered tag seen", "id", id)
			return NewUnregistered(id), nil
		}
		return nil, fmt.Errorf("fetching tag record: %w", err)
	}

	factory, ok := r.factories[rec.Type]
	if !ok {
		r.logger.Warn("tag record has unknown type", "id", id, "type", rec.Type)
		return NewUnknownType(*rec), nil
	}

	t, err := factory(rec.ID, rec.Name, rec.Description, rec.Attr)
	if err != nil {
		return nil, fmt.Errorf("constructing %s tag %s: %w", rec.Type, id, err)
	}
	return t, nil
}

// Create persists a new record and resolves it into a cached Tag.
//
// Fails with ErrInvalidArgument when id or typeName is empty, and with
// ErrUnknownType when no factory is registered for typeName. The factory
// runs before anything is persisted so attribute validation failures
// leave no partial record behind.
func (r *Registry) Create(ctx context.Context, id, typeName, name, description string, attrs map[string]any) (Tag, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidArgument)
	}
	if typeName == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidArgument)
	}

	factory, ok := r.factories[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	t, err := factory(id, name, description, attrs)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:          id,
		Name:        name,
		Description: description,
		Type:        typeName,
		Attr:        attrs,
	}
	if err := r.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = t
	r.cacheMu.Unlock()

	r.logger.Info("tag created", "id", id, "type", typeName)
	return t, nil
}

// Delete removes an identifier from the cache and the repository. An
// empty identifier is a silent no-op; deleting an identifier with no
// record is not an error.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.Info("tag deleted", "id", id)
	return nil
}

// InvalidateCache drops the entire resolve cache. The importer calls this
// after a destructive repopulation.
func (r *Registry) InvalidateCache() {
	r.cacheMu.Lock()
	r.cache = make(map[string]Tag)
	r.cacheMu.Unlock()
}
