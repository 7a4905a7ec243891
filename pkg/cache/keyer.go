package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Keyer derives cache keys for enrichment responses.
type Keyer interface {
	// EnrichKey returns the key for the result of op on input. model is
	// empty for operations that do not take one.
	EnrichKey(op, model, input string) string
}

// DefaultKeyer hashes inputs so keys have a fixed length whatever the
// prompt size.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// EnrichKey returns "enrich:<op>:<sha256 of model and normalized input>".
// Inputs that differ only in surrounding whitespace share a key.
func (DefaultKeyer) EnrichKey(op, model, input string) string {
	// NUL cannot appear in a model name, so the pair is unambiguous.
	return "enrich:" + op + ":" + Hash([]byte(model+"\x00"+strings.TrimSpace(input)))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
