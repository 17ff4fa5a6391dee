package tag

import (
	"context"
	"errors"
	"testing"
)

// testTag is a minimal concrete tag type for registry tests.
type testTag struct {
	Base
}

func testFactory(id, name, description string, attrs map[string]any) (Tag, error) {
	base, err := NewBase("test", id, name, description, attrs, []string{"target"})
	if err != nil {
		return nil, err
	}
	return &testTag{Base: base}, nil
}

func newTestRegistry() (*Registry, *MockRepository) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)
	reg.RegisterType("test", testFactory)
	return reg, repo
}

func TestResolveUnregistered(t *testing.T) {
	reg, _ := newTestRegistry()

	got, err := reg.Resolve(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if _, ok := got.(Unregistered); !ok {
		t.Fatalf("Resolve() returned %T, want Unregistered", got)
	}
	if got.Identifier() != "deadbeef" {
		t.Errorf("Identifier() = %q, want %q", got.Identifier(), "deadbeef")
	}
	if got.Type() != TypeUnregistered {
		t.Errorf("Type() = %q, want %q", got.Type(), TypeUnregistered)
	}
}

func TestResolveRegisteredType(t *testing.T) {
	reg, repo := newTestRegistry()
	repo.records["abc123"] = Record{
		ID:   "abc123",
		Name: "desk lamp",
		Type: "test",
		Attr: map[string]any{"target": "http://example.test"},
	}

	got, err := reg.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if _, ok := got.(*testTag); !ok {
		t.Fatalf("Resolve() returned %T, want testTag", got)
	}
	if got.Name() != "desk lamp" {
		t.Errorf("Name() = %q, want %q", got.Name(), "desk lamp")
	}
}

func TestResolveUnknownType(t *testing.T) {
	reg, repo := newTestRegistry()
	repo.records["abc123"] = Record{ID: "abc123", Type: "removed-plugin"}

	got, err := reg.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	unknown, ok := got.(UnknownType)
	if !ok {
		t.Fatalf("Resolve() returned %T, want UnknownType", got)
	}
	if unknown.RecordType != "removed-plugin" {
		t.Errorf("RecordType = %q, want %q", unknown.RecordType, "removed-plugin")
	}
}

func TestResolveValidationFailurePropagates(t *testing.T) {
	reg, repo := newTestRegistry()
	repo.records["abc123"] = Record{ID: "abc123", Type: "test", Attr: map[string]any{}}

	_, err := reg.Resolve(context.Background(), "abc123")
	if !errors.Is(err, ErrMissingAttributes) {
		t.Fatalf("Resolve() error = %v, want ErrMissingAttributes", err)
	}
}

func TestResolveIsReferenceStable(t *testing.T) {
	reg, repo := newTestRegistry()
	repo.records["abc123"] = Record{
		ID:   "abc123",
		Type: "test",
		Attr: map[string]any{"target": "http://example.test"},
	}

	first, err := reg.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	second, err := reg.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if first != second {
		t.Error("Resolve() returned different instances for the same id")
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	reg, repo := newTestRegistry()
	repo.records["abc123"] = Record{
		ID:   "abc123",
		Type: "test",
		Attr: map[string]any{"target": "http://example.test"},
	}

	ctx := context.Background()

	before, err := reg.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, ok := before.(*testTag); !ok {
		t.Fatalf("pre-delete Resolve() returned %T, want testTag", before)
	}

	if err := reg.Delete(ctx, "abc123"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	after, err := reg.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("post-delete Resolve() error = %v", err)
	}
	if _, ok := after.(Unregistered); !ok {
		t.Errorf("post-delete Resolve() returned %T, want Unregistered", after)
	}
}

func TestDeleteEmptyIDIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry()

	if err := reg.Delete(context.Background(), ""); err != nil {
		t.Errorf("Delete(\"\") error = %v, want nil", err)
	}
}

func TestDeleteAbsentIDIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry()

	if err := reg.Delete(context.Background(), "never-seen"); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

func TestCreate(t *testing.T) {
	reg, repo := newTestRegistry()

	created, err := reg.Create(context.Background(), "abc123", "test", "lamp", "",
		map[string]any{"target": "http://example.test"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, ok := repo.records["abc123"]; !ok {
		t.Error("Create() did not persist the record")
	}

	resolved, err := reg.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved != created {
		t.Error("Resolve() after Create() returned a different instance")
	}
}

func TestCreateInvalidArguments(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		typeName string
		wantErr  error
	}{
		{"missing id", "", "test", ErrInvalidArgument},
		{"missing type", "abc123", "", ErrInvalidArgument},
		{"unknown type", "abc123", "unknownType", ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Create(ctx, tt.id, tt.typeName, "", "", nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateValidationFailureDoesNotPersist(t *testing.T) {
	reg, repo := newTestRegistry()

	_, err := reg.Create(context.Background(), "abc123", "test", "", "", nil)
	if !errors.Is(err, ErrMissingAttributes) {
		t.Fatalf("Create() error = %v, want ErrMissingAttributes", err)
	}
	if len(repo.records) != 0 {
		t.Error("failed Create() left a record behind")
	}
}

func TestRegisterTypeOverwritesSilently(t *testing.T) {
	reg, _ := newTestRegistry()

	replacement := func(id, name, description string, attrs map[string]any) (Tag, error) {
		return NewUnregistered(id), nil
	}
	reg.RegisterType("test", replacement)

	created, err := reg.Create(context.Background(), "y", "test", "", "", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, ok := created.(Unregistered); !ok {
		t.Errorf("replacement factory not used, got %T", created)
	}
}

func TestNewBaseMissingAttributes(t *testing.T) {
	_, err := NewBase("test", "id", "", "", map[string]any{"b": 1}, []string{"a", "b", "c"})
	if !errors.Is(err, ErrMissingAttributes) {
		t.Fatalf("NewBase() error = %v, want ErrMissingAttributes", err)
	}
	// Missing keys are listed for operator diagnosis.
	if got := err.Error(); got != "tag: missing required attributes: a, c" {
		t.Errorf("error = %q, want missing keys a, c listed", got)
	}
}
