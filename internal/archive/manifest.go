package archive

import (
	"fmt"
	"io"
	"strings"
)

// ManifestName is the archive entry holding the token table. It is always
// the first entry a correct writer emits, but readers scan for it rather
// than trusting position.
const ManifestName = "fingerprint.txt"

// infoHeader separates the build marker from the token table in the
// manifest's wire format.
const infoHeader = "[Backup Info]"

// ManifestEntry maps one token to the original absolute path it stands for.
type ManifestEntry struct {
	Token Token
	Path  string
}

// Manifest is the metadata record embedded in every archive. It carries the
// identity of the build that produced the archive plus the table that maps
// archive namespace tokens back to original paths. Immutable once written.
type Manifest struct {
	Marker  string
	Entries []ManifestEntry

	// text is the verbatim content this manifest was parsed from, kept so
	// marker validation matches on the raw bytes.
	text string
}

// NewManifest creates a manifest for the given build marker.
func NewManifest(marker string) *Manifest {
	return &Manifest{Marker: marker}
}

// Add appends a token mapping.
func (m *Manifest) Add(token Token, originalPath string) {
	m.Entries = append(m.Entries, ManifestEntry{Token: token, Path: originalPath})
}

// Render produces the wire format:
//
//	<build-marker>
//	[Backup Info]
//	<token>: <original-absolute-path>
//	...
func (m *Manifest) Render() []byte {
	var b strings.Builder
	b.WriteString(m.Marker)
	b.WriteByte('\n')
	b.WriteString(infoHeader)
	b.WriteByte('\n')
	for _, e := range m.Entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Token, e.Path)
	}
	return []byte(b.String())
}

// ParseManifest reads a manifest from its wire format. The first line is
// the build marker; every subsequent line containing the ": " delimiter is
// one token mapping. Lines without the delimiter are ignored so future
// writers can add sections without breaking older readers.
func ParseManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	text := string(data)
	m := &Manifest{text: text}

	for i, line := range strings.Split(text, "\n") {
		if i == 0 {
			m.Marker = strings.TrimRight(line, "\r")
			continue
		}
		token, path, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		m.Add(Token(token), strings.TrimSpace(path))
	}

	return m, nil
}

// ValidFor reports whether this manifest was produced by a compatible
// build. The check is a substring match against the raw manifest content,
// matching the restore gate of the original format. It is a compatibility
// gate, not a security boundary.
func (m *Manifest) ValidFor(marker string) bool {
	if m.text != "" {
		return strings.Contains(m.text, marker)
	}
	return strings.Contains(string(m.Render()), marker)
}

// PathMap returns the token table as a lookup map.
func (m *Manifest) PathMap() map[Token]string {
	paths := make(map[Token]string, len(m.Entries))
	for _, e := range m.Entries {
		paths[e.Token] = e.Path
	}
	return paths
}
