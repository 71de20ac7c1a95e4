// Package guid implements the 128-bit identifier used to name objects,
// package exports, and package imports independently of where they live on
// disk. IDs are generated as RFC 4122 v4 (crypto/rand-backed, with version
// and variant bits forced) and always serialize as their 16 raw bytes in
// generation order — never as an endian-aware integer split.
package guid

import (
	"errors"

	"github.com/google/uuid"

	"github.com/lumina-rt/objectcore/internal/assert"
)

// Size is the number of raw bytes a GUID serializes to.
const Size = 16

// GUID is a 128-bit identifier. The zero value is the nil GUID, used to mean
// "no object" in places a GUID field is optional.
type GUID [Size]byte

// New generates a fresh random (v4) GUID.
func New() GUID {
	id, err := uuid.NewRandom()
	// crypto/rand failure is not recoverable for identity generation; every
	// object and export needs a GUID to exist at all.
	assert.That(err == nil, "guid: random generation failed: %v", err)
	return GUID(id)
}

// IsNil reports whether g is the all-zero GUID.
func (g GUID) IsNil() bool {
	return g == GUID{}
}

// Bytes returns the 16 raw bytes in the order they are generated/serialized.
func (g GUID) Bytes() []byte {
	return g[:]
}

// FromBytes reconstructs a GUID from exactly Size raw bytes.
func FromBytes(b []byte) (GUID, error) {
	var g GUID
	if len(b) != Size {
		return g, errors.New("guid: wrong byte length")
	}
	copy(g[:], b)
	return g, nil
}

// String renders the canonical 8-4-4-4-12 hyphenated hex form.
func (g GUID) String() string {
	return uuid.UUID(g).String()
}

// Parse accepts the canonical hyphenated hex form (and the other forms
// google/uuid tolerates) and returns the corresponding GUID.
func Parse(s string) (GUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	return GUID(id), nil
}

// MarshalText implements encoding.TextMarshaler so GUIDs serialize cleanly
// through viper/json-backed configuration and log fields.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
