package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "defs", "analytics"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defs", "analytics", "defs.yaml"), []byte("type: x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profiles.yml"), []byte("default: {}\n"), 0o644))
	return dir
}

func unpack(t *testing.T, data []byte) map[string]string {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = string(content)
	}
	return files
}

func TestPack_ArchivesTree(t *testing.T) {
	dir := writeTestTree(t)

	data, err := Pack(dir)
	require.NoError(t, err)

	files := unpack(t, data)
	assert.Equal(t, "type: x\n", files["defs/analytics/defs.yaml"])
	assert.Equal(t, "default: {}\n", files["profiles.yml"])
}

func TestPack_IsDeterministic(t *testing.T) {
	dir := writeTestTree(t)

	first, err := Pack(dir)
	require.NoError(t, err)
	second, err := Pack(dir)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical trees must pack to identical bytes")
}

func TestPublisher_PublishRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	publisher := NewPublisher(store, "migrations", "dagshift")
	dir := writeTestTree(t)

	uri, err := publisher.Publish(context.Background(), dir, "account-42")
	require.NoError(t, err)
	assert.Equal(t, "s3://migrations/dagshift/account-42.tar.gz", uri)

	data, err := store.GetObject(context.Background(), "migrations", "dagshift/account-42.tar.gz")
	require.NoError(t, err)
	files := unpack(t, data)
	assert.Contains(t, files, "profiles.yml")
}

func TestLocalStore_MissingObject(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.EnsureBucket(context.Background(), "b"))

	_, err := store.GetObject(context.Background(), "b", "nope")
	var bundleErr *Error
	require.ErrorAs(t, err, &bundleErr)
	assert.Equal(t, CodeObjectNotFound, bundleErr.Code)
}

func TestLocalStore_ListPrefix(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, "b", "p/one", []byte("1")))
	require.NoError(t, store.PutObject(ctx, "b", "p/two", []byte("2")))
	require.NoError(t, store.PutObject(ctx, "b", "q/other", []byte("3")))

	keys, err := store.ListPrefix(ctx, "b", "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"p/one", "p/two"}, keys)
}
