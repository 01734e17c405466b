package models

import (
	"errors"
	"strings"
)

type IdentityKind uint8

const (
	IdentityNone IdentityKind = iota
	IdentityUUID
	IdentityEmail
	IdentitySynthetic
)

func (k IdentityKind) prefix() string {
	switch k {
	case IdentityUUID:
		return "uuid"
	case IdentityEmail:
		return "email"
	case IdentitySynthetic:
		return "synthetic"
	default:
		return ""
	}
}

var ErrInvalidIdentityKey = errors.New("invalid identity key")

// IdentityKey is the handle that deduplicates one person across sources.
// Only the constructors below produce valid keys, so the resolution
// priority (uuid, then email, then synthetic) lives in the type.
type IdentityKey struct {
	kind  IdentityKind
	value string
}

func UUIDKey(uuid string) IdentityKey {
	return IdentityKey{kind: IdentityUUID, value: strings.ToLower(strings.TrimSpace(uuid))}
}

func EmailKey(email string) IdentityKey {
	return IdentityKey{kind: IdentityEmail, value: NormalizeEmail(email)}
}

func SyntheticKey(value string) IdentityKey {
	return IdentityKey{kind: IdentitySynthetic, value: value}
}

func (k IdentityKey) Kind() IdentityKind { return k.kind }
func (k IdentityKey) Value() string      { return k.value }
func (k IdentityKey) IsZero() bool       { return k.kind == IdentityNone }
func (k IdentityKey) IsSynthetic() bool  { return k.kind == IdentitySynthetic }

func (k IdentityKey) String() string {
	if k.IsZero() {
		return ""
	}
	return k.kind.prefix() + ":" + k.value
}

func (k IdentityKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *IdentityKey) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentityKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseIdentityKey is the inverse of String. An empty string yields the zero key.
func ParseIdentityKey(s string) (IdentityKey, error) {
	if s == "" {
		return IdentityKey{}, nil
	}
	prefix, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return IdentityKey{}, ErrInvalidIdentityKey
	}
	switch prefix {
	case "uuid":
		return UUIDKey(value), nil
	case "email":
		return EmailKey(value), nil
	case "synthetic":
		return SyntheticKey(value), nil
	}
	return IdentityKey{}, ErrInvalidIdentityKey
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
