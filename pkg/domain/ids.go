// Package domain holds identifier types shared across modules.
//
// Family, subject and guardian identifiers are owned by the external account
// collaborator and are treated as opaque strings. Identifiers this engine mints
// itself (flags) are UUIDs.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "vigil/pkg/domain-errors"
)

// FamilyID identifies a family account.
type FamilyID string

// SubjectID identifies a monitored subject (a child's device profile).
type SubjectID string

// GuardianID identifies a notification recipient.
type GuardianID string

// FlagID identifies a persisted flag.
type FlagID uuid.UUID

func (id FamilyID) String() string   { return string(id) }
func (id SubjectID) String() string  { return string(id) }
func (id GuardianID) String() string { return string(id) }

func (id FlagID) String() string { return uuid.UUID(id).String() }

// MarshalText renders the canonical UUID form in JSON and structured logs.
func (id FlagID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *FlagID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// IsNil reports whether the flag id is the zero UUID.
func (id FlagID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewFlagID mints a random flag identifier.
func NewFlagID() FlagID { return FlagID(uuid.New()) }

// ParseFamilyID validates an opaque family identifier.
func ParseFamilyID(s string) (FamilyID, error) {
	v, err := parseOpaque("family_id", s)
	return FamilyID(v), err
}

// ParseSubjectID validates an opaque subject identifier.
func ParseSubjectID(s string) (SubjectID, error) {
	v, err := parseOpaque("subject_id", s)
	return SubjectID(v), err
}

// ParseGuardianID validates an opaque guardian identifier.
func ParseGuardianID(s string) (GuardianID, error) {
	v, err := parseOpaque("guardian_id", s)
	return GuardianID(v), err
}

// ParseFlagID parses a flag identifier, rejecting the nil UUID.
func ParseFlagID(s string) (FlagID, error) {
	if s == "" {
		return FlagID{}, dErrors.New(dErrors.CodeInvalidInput, "flag_id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return FlagID{}, dErrors.New(dErrors.CodeInvalidInput, "flag_id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return FlagID{}, dErrors.New(dErrors.CodeInvalidInput, "flag_id must not be nil")
	}
	return FlagID(parsed), nil
}

const maxOpaqueIDLength = 128

func parseOpaque(field, s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(trimmed) > maxOpaqueIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	return trimmed, nil
}
