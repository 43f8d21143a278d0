// Package entities contains the domain entities for tokenforge.
// These are plain Go structs with validation logic; the one external
// dependency is cespare/xxhash/v2, used by canonical.go.
package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors (fatal, per spec §7).
var (
	ErrUnknownLayer         = errors.New("unknown layer")
	ErrPointerTemplateError = errors.New("pointer template placeholder unresolved")
	ErrUnknownFormatter     = errors.New("unknown formatter name")
	ErrUnknownRuleFactory   = errors.New("policy rule factory not registered")
	ErrUnsupportedSnapshotVersion = errors.New("unsupported dependency snapshot version")
)

// Resolution errors (per-snapshot, attached rather than fatal).
var (
	ErrAliasCycle        = errors.New("alias resolution cycle detected")
	ErrUnresolvedRef      = errors.New("token reference could not be resolved")
	ErrInvalidTokenType  = errors.New("token type is not a recognized type")
	ErrAmbiguousTokenLeaf = errors.New("leaf token must have exactly one of value or ref")
)

// Cancellation is modelled as a distinct error kind with no retry semantics (spec §5, §7).
var ErrCancelled = errors.New("build cancelled")

// ErrEmptyName and friends are kept from the general validation vocabulary;
// they back ValidateName/ValidateID.
var (
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrInvalidName = errors.New("name contains invalid characters")
	ErrEmptyID     = errors.New("id cannot be empty")
	ErrEmptyPath   = errors.New("path cannot be empty")
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Entity  string // Entity type (e.g., "Token", "TransformDefinition")
	Field   string // Field that failed validation
	Value   string // The invalid value (may be truncated)
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error.
func NewValidationError(entity, field, value, message string, err error) *ValidationError {
	if len(value) > 50 {
		value = value[:47] + "..."
	}
	return &ValidationError{
		Entity:  entity,
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d validation errors:\n", len(ve)))
	for i, err := range ve {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return b.String()
}

// HasErrors returns true if there are validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends a validation error to the collection.
func (ve *ValidationErrors) Add(entity, field, value, message string, err error) {
	*ve = append(*ve, NewValidationError(entity, field, value, message, err))
}

// NotFoundError represents an entity not found error.
type NotFoundError struct {
	Entity string
	ID     string
	Parent string // Optional parent context
}

func (e *NotFoundError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s '%s' not found in %s", e.Entity, e.ID, e.Parent)
	}
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

// DuplicateError represents a duplicate entity error.
type DuplicateError struct {
	Entity string
	ID     string
	Parent string
}

func (e *DuplicateError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s '%s' already exists in %s", e.Entity, e.ID, e.Parent)
	}
	return fmt.Sprintf("%s '%s' already exists", e.Entity, e.ID)
}

// PointerTemplateError names the missing placeholder that prevented
// expansion of a source's pointer template (spec §4.1, §8).
type PointerTemplateError struct {
	Template  string
	Qualifier string // missing placeholder name, e.g. "basename"
}

func (e *PointerTemplateError) Error() string {
	return fmt.Sprintf("pointer template %q: missing placeholder %q", e.Template, e.Qualifier)
}

func (e *PointerTemplateError) Unwrap() error {
	return ErrPointerTemplateError
}

// UnknownLayerError names the layer a source referenced that has no
// matching entry in the plan configuration.
type UnknownLayerError struct {
	Layer string
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("source references unknown layer %q", e.Layer)
}

func (e *UnknownLayerError) Unwrap() error {
	return ErrUnknownLayer
}
