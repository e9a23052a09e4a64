// Package id provides id generation for workspace nodes and windows.
//
// Node and window ids are prefixed ULIDs:
//   - Sortable: creation order is visible in logs and snapshots
//   - Prefixed: tab_*, folder_*, win_* make logs readable
//   - Never reused: a closed tab's id is never handed out again
//
// Partition names for incognito windows are random UUIDs so they carry no
// timestamp.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NodeID identifies a tab or folder in a workspace tree
type NodeID string

// WindowID identifies a browser window
type WindowID string

const (
	TabPrefix       = "tab"
	FolderPrefix    = "folder"
	WindowPrefix    = "win"
	PartitionPrefix = "partition"
	RequestPrefix   = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
	last      ulid.ULID
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID. Ids generated within the same millisecond are
// strictly increasing.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	next := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	if next.Compare(g.last) <= 0 {
		next = g.last
		if e, ok := incrementEntropy(g.last.Entropy()); !ok || next.SetEntropy(e) != nil {
			next = ulid.MustNew(g.last.Time()+1, g.entropy)
		}
	}
	g.last = next
	return next
}

// incrementEntropy adds one to the big-endian entropy bytes; ok is false on
// overflow.
func incrementEntropy(e []byte) ([]byte, bool) {
	out := append([]byte(nil), e...)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			return out, true
		}
	}
	return out, false
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewTabID generates a new tab node id
func NewTabID() NodeID {
	return NodeID(Default().GenerateWithPrefix(TabPrefix))
}

// NewFolderID generates a new folder node id
func NewFolderID() NodeID {
	return NodeID(Default().GenerateWithPrefix(FolderPrefix))
}

// NewWindowID generates a new window id
func NewWindowID() WindowID {
	return WindowID(Default().GenerateWithPrefix(WindowPrefix))
}

// NewRequestID generates an id for one control API request or span.
func NewRequestID() string {
	return Default().GenerateWithPrefix(RequestPrefix)
}

// NewPartition returns a fresh isolated resource partition name.
func NewPartition() string {
	return PartitionPrefix + "_" + uuid.NewString()
}

func (id NodeID) String() string   { return string(id) }
func (id WindowID) String() string { return string(id) }

// IsTab reports whether the id was issued for a tab.
func (id NodeID) IsTab() bool { return strings.HasPrefix(string(id), TabPrefix+"_") }

// IsFolder reports whether the id was issued for a folder.
func (id NodeID) IsFolder() bool { return strings.HasPrefix(string(id), FolderPrefix+"_") }

// IsValid checks if an id string is a valid ULID, with or without prefix
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Parse parses a ULID string, stripping a known prefix first
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from an id
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
