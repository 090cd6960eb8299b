// Package domain holds typed identifiers and actor primitives shared across
// modules. Typed IDs prevent cross-type assignment at compile time; parse
// functions enforce validity at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "vantage/pkg/domain-errors"
)

// TenantID identifies a tenant organization.
type TenantID uuid.UUID

// EntryID identifies an approval log entry.
type EntryID uuid.UUID

// BlueprintID identifies an activatable feature bundle. Blueprint IDs are
// human-assigned slugs (e.g. "agency-suite"), not UUIDs.
type BlueprintID string

// NewTenantID generates a fresh tenant ID.
func NewTenantID() TenantID {
	return TenantID(uuid.New())
}

// NewEntryID generates a fresh log entry ID.
func NewEntryID() EntryID {
	return EntryID(uuid.New())
}

// ParseTenantID validates and returns a TenantID.
// Rejects empty, malformed, and nil UUIDs.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseBlueprintID validates a blueprint slug: non-empty, at most 64
// characters, lowercase letters, digits and hyphens.
func ParseBlueprintID(s string) (BlueprintID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blueprint id is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blueprint id must be 64 characters or less")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "blueprint id may contain only lowercase letters, digits, and hyphens")
		}
	}
	return BlueprintID(s), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", what)
	}
	return u, nil
}

func (id TenantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) String() string { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler so tenant IDs render as
// canonical UUID strings in JSON documents.
func (id TenantID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = TenantID(u)
	return nil
}

func (id EntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) String() string { return uuid.UUID(id).String() }

func (id EntryID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

func (id *EntryID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EntryID(u)
	return nil
}

func (id BlueprintID) String() string { return string(id) }
