// Package codec decomposes CAD containers into diff-friendly directory
// trees and recomposes trees into containers. A container is a zip archive;
// the manifest written at decompose time is what makes the split reversible
// without information loss.
package codec

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/cadlink-project/cadlink/pkg/config"
	"github.com/cadlink-project/cadlink/pkg/errclass"
	"github.com/cadlink-project/cadlink/pkg/fsutil"
)

// Container entry names with fixed roles.
const (
	StructuralEntry   = "Document.xml"
	PresentationEntry = "GuiDocument.xml"
	ThumbnailEntry    = "thumbnails/Thumbnail.png"
	ThumbnailFile     = "Thumbnail.png"
)

// TreeHandle points at a decomposed tree that was just written.
type TreeHandle struct {
	Dir      string
	Manifest *Manifest
}

// Codec converts between containers and decomposed trees.
type Codec interface {
	Decompose(containerPath, outputDir string) (*TreeHandle, error)
	Recompose(inputDir, containerPath string) error
}

// zipCodec is the production Codec over archive/zip.
type zipCodec struct {
	cfg      *config.Config
	binaries []glob.Glob
}

// New compiles the config's binary patterns and returns the production codec.
func New(cfg *config.Config) (Codec, error) {
	matchers := make([]glob.Glob, 0, len(cfg.BinaryPatterns))
	for _, pattern := range cfg.BinaryPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errclass.ErrConfigInvalid.WithMessagef("binary pattern %q: %v", pattern, err)
		}
		matchers = append(matchers, g)
	}
	return &zipCodec{cfg: cfg, binaries: matchers}, nil
}

func (c *zipCodec) classify(entryName string) EntryClass {
	if entryName == ThumbnailEntry {
		return ClassThumbnail
	}
	for _, g := range c.binaries {
		if g.Match(entryName) {
			return ClassBinary
		}
	}
	return ClassText
}

// Decompose explodes the container at containerPath into outputDir. The
// tree is written to a staging directory first and swapped in atomically,
// so concurrent readers never see a partial tree. Any existing tree at
// outputDir is replaced.
func (c *zipCodec) Decompose(containerPath, outputDir string) (*TreeHandle, error) {
	if _, err := os.Stat(containerPath); os.IsNotExist(err) {
		return nil, errclass.ErrNotFound.WithMessagef("container %s does not exist", containerPath)
	}

	r, err := zip.OpenReader(containerPath)
	if err != nil {
		return nil, errclass.ErrContainerCorrupt.WithMessagef("open %s: %v", containerPath, err)
	}
	defer r.Close()

	// The parent may not exist yet, e.g. the first decompose into a
	// subdirectory_mode layout.
	if err := os.MkdirAll(filepath.Dir(outputDir), 0755); err != nil {
		return nil, fmt.Errorf("create tree parent: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(outputDir), ".cadlink-stage-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	entryNames := make(map[string]bool, len(r.File))
	for _, f := range r.File {
		name := f.Name
		if name == "" || name[len(name)-1] == '/' {
			continue
		}
		if entryNames[name] {
			return nil, errclass.ErrContainerCorrupt.WithMessagef("duplicate entry %s", name)
		}
		entryNames[name] = true
	}

	manifest := &Manifest{
		FormatVersion: manifestFormatVersion,
		Container:     filepath.Base(containerPath),
	}

	for order, f := range r.File {
		name := f.Name
		if name == "" || name[len(name)-1] == '/' {
			continue // directory entries carry no content
		}

		class := c.classify(name)
		if class == ClassThumbnail && !c.cfg.IncludeThumbnails {
			continue
		}

		fileName := treeFileName(name)
		// The thumbnail gets the friendly fixed name unless an ordinary
		// entry already claims it, in which case the flattened name keeps
		// the two apart. Flattened names cannot collide with each other.
		if class == ClassThumbnail && !entryNames[ThumbnailFile] {
			fileName = ThumbnailFile
		}

		if err := extractEntry(f, filepath.Join(staging, fileName)); err != nil {
			return nil, errclass.ErrContainerCorrupt.WithMessagef("extract %s: %v", name, err)
		}

		manifest.Entries = append(manifest.Entries, ManifestEntry{
			Name:   name,
			File:   fileName,
			Order:  order,
			Method: methodOf(f.Method),
			Class:  class,
			Size:   f.UncompressedSize64,
			CRC32:  f.CRC32,
		})
	}

	if err := WriteManifest(staging, manifest); err != nil {
		return nil, err
	}
	if err := fsutil.FsyncTree(staging); err != nil {
		return nil, fmt.Errorf("fsync tree: %w", err)
	}
	if err := fsutil.SwapDir(staging, outputDir); err != nil {
		return nil, err
	}

	return &TreeHandle{Dir: outputDir, Manifest: manifest}, nil
}

// Recompose rebuilds the container from the tree at inputDir, writing a
// temp file and renaming over containerPath only on success.
func (c *zipCodec) Recompose(inputDir, containerPath string) error {
	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		return errclass.ErrNotFound.WithMessagef("decomposed tree %s does not exist", inputDir)
	}

	manifest, err := LoadManifest(inputDir)
	if err != nil {
		return err
	}
	for _, required := range []string{StructuralEntry, PresentationEntry} {
		entry := manifest.Find(required)
		if entry == nil {
			return errclass.ErrTreeInvalid.WithMessagef("manifest lacks required entry %s", required)
		}
		if _, err := os.Stat(filepath.Join(inputDir, entry.File)); err != nil {
			return errclass.ErrTreeInvalid.WithMessagef("required entry %s missing from tree", required)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(containerPath), ".cadlink-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp container: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, c.cfg.CompressionLevel)
	})

	for _, entry := range manifest.Ordered() {
		data, err := os.ReadFile(filepath.Join(inputDir, entry.File))
		if err != nil {
			return errclass.ErrTreeInvalid.WithMessagef("tree file %s: %v", entry.File, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   entry.Name,
			Method: c.storageFor(entry),
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", entry.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", entry.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize container: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync container: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close container: %w", err)
	}
	if err := fsutil.RenameAndSync(tmpPath, containerPath); err != nil {
		return err
	}

	success = true
	return nil
}

// storageFor picks the zip method for an entry on recompose. Opaque
// binaries follow the compress_binaries setting; everything else keeps the
// method recorded at decompose time.
func (c *zipCodec) storageFor(entry ManifestEntry) uint16 {
	if entry.Class == ClassBinary {
		if c.cfg.CompressBinaries {
			return zip.Deflate
		}
		return zip.Store
	}
	if entry.Method == MethodStore {
		return zip.Store
	}
	return zip.Deflate
}

func methodOf(zipMethod uint16) StorageMethod {
	if zipMethod == zip.Store {
		return MethodStore
	}
	return MethodDeflate
}

func extractEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
