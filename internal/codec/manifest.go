package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/fsutil"
)

// ManifestName is the metadata file written into every decomposed tree.
const ManifestName = ".manifest"

const manifestFormatVersion = 1

// EntryClass is the runtime classification of a container entry.
type EntryClass string

const (
	ClassText      EntryClass = "text"
	ClassBinary    EntryClass = "binary"
	ClassThumbnail EntryClass = "thumbnail"
)

// StorageMethod is the zip storage method recorded for an entry.
type StorageMethod string

const (
	MethodStore   StorageMethod = "store"
	MethodDeflate StorageMethod = "deflate"
)

// ManifestEntry records everything needed to rebuild one container entry
// without re-deriving classification or compression choices.
type ManifestEntry struct {
	Name   string        `json:"name"`  // original entry name inside the container
	File   string        `json:"file"`  // file name inside the decomposed tree
	Order  int           `json:"order"` // position in the original container
	Method StorageMethod `json:"method"`
	Class  EntryClass    `json:"class"`
	Size   uint64        `json:"size"`
	CRC32  uint32        `json:"crc32"`
}

// Manifest describes a decomposed tree.
type Manifest struct {
	FormatVersion int             `json:"format_version"`
	Container     string          `json:"container"` // base name of the source container
	Entries       []ManifestEntry `json:"entries"`
}

// Ordered returns the entries sorted by original container order.
func (m *Manifest) Ordered() []ManifestEntry {
	out := make([]ManifestEntry, len(m.Entries))
	copy(out, m.Entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Find returns the entry with the given original name, or nil.
func (m *Manifest) Find(name string) *ManifestEntry {
	for i := range m.Entries {
		if m.Entries[i].Name == name {
			return &m.Entries[i]
		}
	}
	return nil
}

// WriteManifest atomically writes the manifest into treeDir.
func WriteManifest(treeDir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return fsutil.AtomicWrite(filepath.Join(treeDir, ManifestName), append(data, '\n'), 0644)
}

// LoadManifest reads and validates the manifest from treeDir.
func LoadManifest(treeDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(treeDir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errclass.ErrTreeInvalid.WithMessagef("missing %s in %s", ManifestName, treeDir)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errclass.ErrTreeInvalid.WithMessagef("parse %s: %v", ManifestName, err)
	}
	if m.FormatVersion != manifestFormatVersion {
		return nil, errclass.ErrTreeInvalid.WithMessagef(
			"manifest format version %d, supported %d", m.FormatVersion, manifestFormatVersion)
	}
	for _, e := range m.Entries {
		if e.Name == "" || e.File == "" {
			return nil, errclass.ErrTreeInvalid.WithMessage("manifest entry with empty name")
		}
	}
	return &m, nil
}

// treeFileName flattens a container entry name into a single file name.
// '/' and '%' are escaped so the mapping is reversible and the tree stays
// one level deep.
func treeFileName(entryName string) string {
	s := strings.ReplaceAll(entryName, "%", "%25")
	return strings.ReplaceAll(s, "/", "%2F")
}
