package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CodeMapping translates one Katana code into its Luca counterpart. For a
// given (MappingType, KatanaValue) at most one mapping is active; upserting
// a key deactivates the previous row so history is preserved.
type CodeMapping struct {
	ID          uuid.UUID
	MappingType MappingType
	KatanaValue string
	LucaValue   string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCodeMapping creates an active code mapping
func NewCodeMapping(mappingType MappingType, katanaValue, lucaValue, description string) (*CodeMapping, error) {
	if !mappingType.IsValid() {
		return nil, fmt.Errorf("%w: unknown mapping type %q", ErrCodeMappingInvalid, mappingType)
	}
	if strings.TrimSpace(katanaValue) == "" || strings.TrimSpace(lucaValue) == "" {
		return nil, fmt.Errorf("%w: both values are required", ErrCodeMappingInvalid)
	}
	now := time.Now()
	return &CodeMapping{
		ID:          uuid.New(),
		MappingType: mappingType,
		KatanaValue: katanaValue,
		LucaValue:   lucaValue,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deactivate retires this mapping
func (m *CodeMapping) Deactivate() {
	m.IsActive = false
	m.UpdatedAt = time.Now()
}

// CodeMappingStore persists code mappings and serves translation lookups.
type CodeMappingStore interface {
	// Resolve returns the active Luca value for a Katana code.
	// Absence is ErrCodeMappingNotFound, never a silent default.
	Resolve(ctx context.Context, mappingType MappingType, katanaValue string) (string, error)

	// Upsert activates a mapping, deactivating any previous active row for
	// the same (mappingType, katanaValue) key
	Upsert(ctx context.Context, mapping *CodeMapping) error

	// List returns all mappings of one type, active first
	List(ctx context.Context, mappingType MappingType) ([]CodeMapping, error)

	// Deactivate retires a mapping by ID
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// MappingContext
// ---------------------------------------------------------------------------

// MappingContext is an immutable snapshot of active code mappings handed to
// the translator, which stays pure: all lookups hit this snapshot, never the
// store.
type MappingContext struct {
	values map[MappingType]map[string]string
}

// NewMappingContext builds a context from resolved mappings
func NewMappingContext(mappings []CodeMapping) *MappingContext {
	values := make(map[MappingType]map[string]string)
	for _, m := range mappings {
		if !m.IsActive {
			continue
		}
		byKey, ok := values[m.MappingType]
		if !ok {
			byKey = make(map[string]string)
			values[m.MappingType] = byKey
		}
		byKey[m.KatanaValue] = m.LucaValue
	}
	return &MappingContext{values: values}
}

// Resolve looks up the Luca value for a Katana code
func (c *MappingContext) Resolve(mappingType MappingType, katanaValue string) (string, error) {
	if byKey, ok := c.values[mappingType]; ok {
		if v, ok := byKey[katanaValue]; ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s %q", ErrCodeMappingNotFound, mappingType, katanaValue)
}
