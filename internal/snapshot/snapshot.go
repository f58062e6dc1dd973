// Package snapshot reads and writes offline copies of fetched contribution
// pages.
//
// A snapshot is an envelope around the pages:
//
//	{"schemaVersion": 1, "queryHash": "<hex sha256>", "generatedAt": "...", "contributions": [...]}
//
// The query hash is the SHA-256 of the GraphQL text the pages were fetched
// with. A snapshot whose version or hash differs from the current ones is
// stale and should be refetched.
//
// A bare JSON array of pages, without the envelope, is a fixture. Fixtures
// are written by hand and carry no hash, so they are never stale.
package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/naka-gawa/repo-year/internal/domain"
)

// SchemaVersion is the envelope version written by this package.
const SchemaVersion = 1

// ErrInvalidSnapshot is returned when a snapshot does not match the schema.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Envelope is a snapshot of contribution pages.
type Envelope struct {
	SchemaVersion int                     `json:"schemaVersion"`
	QueryHash     string                  `json:"queryHash"`
	GeneratedAt   time.Time               `json:"generatedAt"`
	Contributions []*domain.Contributions `json:"contributions"`
}

// QueryHash returns the hex SHA-256 of query.
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

// New wraps pages fetched with query.
func New(query string, pages []*domain.Contributions, now time.Time) *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		QueryHash:     QueryHash(query),
		GeneratedAt:   now.UTC(),
		Contributions: pages,
	}
}

// Valid reports whether the snapshot was written by this schema version for
// query. It never fails: stale data is for the caller to discard.
func (e *Envelope) Valid(query string) bool {
	return e.SchemaVersion == SchemaVersion && e.QueryHash == QueryHash(query)
}

// Write encodes the envelope as indented JSON.
func Write(w io.Writer, e *Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Read decodes an envelope after checking it against the snapshot schema.
// It does not check the version or hash; see Valid.
func Read(r io.Reader) (*Envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &e, nil
}

// ReadFixture decodes a bare JSON array of pages.
func ReadFixture(r io.Reader) ([]*domain.Contributions, error) {
	var pages []*domain.Contributions
	dec := json.NewDecoder(r)
	if err := dec.Decode(&pages); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return pages, nil
}

// IsFixture reports whether r holds a fixture rather than an envelope, by
// looking at the first byte after leading white space. That byte is left
// unread.
func IsFixture(r *bufio.Reader) (bool, error) {
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to read snapshot: %w", err)
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == '[', r.UnreadByte()
	}
}

func validateSchema(data []byte) error {
	if !json.Valid(bytes.TrimSpace(data)) {
		return fmt.Errorf("%w: not JSON", ErrInvalidSnapshot)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(problems, "; "))
}
