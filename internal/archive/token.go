package archive

import "github.com/google/uuid"

// Token is the opaque namespace key assigned to one top-level backup input.
// A token is unique within an archive, carries no semantic meaning, and
// appears both in the manifest table and as the leading component of every
// entry name that belongs to its input.
type Token string

// TokenGenerator abstracts token generation so business logic is
// deterministic in tests.
type TokenGenerator interface {
	New() Token
}

// UUIDTokenGenerator produces random UUID tokens.
type UUIDTokenGenerator struct{}

func (UUIDTokenGenerator) New() Token { return Token(uuid.New().String()) }
