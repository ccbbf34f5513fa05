package verify_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlink-project/cadlink/internal/codec"
	"github.com/cadlink-project/cadlink/internal/verify"
	"github.com/cadlink-project/cadlink/pkg/config"
)

func decomposeFixture(t *testing.T) (string, string, string) {
	t.Helper()
	root := t.TempDir()

	container := filepath.Join(root, "part.FCStd")
	f, err := os.Create(container)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range map[string]string{
		"Document.xml":    "<?xml version=\"1.0\"?>\n<Document/>\n",
		"GuiDocument.xml": "<?xml version=\"1.0\"?>\n<GuiDocument/>\n",
		"PartShape.brp":   "binarybinarybinary",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	c, err := codec.New(config.Default())
	require.NoError(t, err)
	treeDir := filepath.Join(root, "part_uncompressed")
	_, err = c.Decompose(container, treeDir)
	require.NoError(t, err)

	return root, "part.FCStd", "part_uncompressed"
}

func TestVerifyTree_Clean(t *testing.T) {
	root, containerRel, treeRel := decomposeFixture(t)

	res, err := verify.NewVerifier(root).VerifyTree(containerRel, treeRel)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Empty(t, res.Problems)
}

func TestVerifyTree_ModifiedEntry(t *testing.T) {
	root, containerRel, treeRel := decomposeFixture(t)

	path := filepath.Join(root, treeRel, "Document.xml")
	require.NoError(t, os.WriteFile(path, []byte("<?xml version=\"1.0\"?>\n<Edited/>\n"), 0644))

	res, err := verify.NewVerifier(root).VerifyTree(containerRel, treeRel)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.True(t, res.ManifestValid)
	require.NotEmpty(t, res.Problems)
	assert.Contains(t, res.Problems[0], "Document.xml")
}

func TestVerifyTree_MissingFile(t *testing.T) {
	root, containerRel, treeRel := decomposeFixture(t)

	require.NoError(t, os.Remove(filepath.Join(root, treeRel, "PartShape.brp")))

	res, err := verify.NewVerifier(root).VerifyTree(containerRel, treeRel)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Contains(t, res.Problems[0], "missing")
}

func TestVerifyTree_NoManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tree"), 0755))

	res, err := verify.NewVerifier(root).VerifyTree("part.FCStd", "tree")
	require.NoError(t, err)
	assert.False(t, res.ManifestValid)
	assert.False(t, res.OK())
}
