// Package agent provides the strong identity and type vocabulary shared by
// every other package in this module: agent identifiers, agent types, and the
// agent status state machine.
package agent

import "github.com/google/uuid"

// ID is the strong type for an agent identifier. It wraps a random UUID
// (128 bits), giving negligible collision probability across process
// lifetimes without requiring a central allocator.
type ID uuid.UUID

// NilID is the zero value of ID, returned by lookups that found nothing.
var NilID ID

// NewID returns a fresh, globally unique agent identifier.
func NewID() ID {
	return ID(uuid.New())
}

// String renders the canonical textual form of the identifier.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == NilID
}

// ParseID parses the canonical textual form produced by String.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, err
	}
	return ID(u), nil
}
