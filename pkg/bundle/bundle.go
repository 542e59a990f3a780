// Package bundle packs a generated artifact tree into a tar.gz archive and
// publishes it to an object store for distribution to other teams.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Publisher uploads packed artifact trees.
type Publisher struct {
	store  ObjectStore
	bucket string
	prefix string
}

func NewPublisher(store ObjectStore, bucket, prefix string) *Publisher {
	return &Publisher{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Pack archives dir into a gzip'd tarball. Entries are sorted and carry a
// fixed modification time so identical trees pack to identical bytes.
func Pack(dir string) ([]byte, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		hdr := &tar.Header{
			Name:    filepath.ToSlash(rel),
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("tar header %s: %w", rel, err)
		}
		if _, err := tw.Write(data); err != nil {
			return nil, fmt.Errorf("tar write %s: %w", rel, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Publish packs dir and uploads it under the publisher's prefix as
// <name>.tar.gz, returning the object URI.
func (p *Publisher) Publish(ctx context.Context, dir, name string) (string, error) {
	data, err := Pack(dir)
	if err != nil {
		return "", err
	}
	if err := p.store.EnsureBucket(ctx, p.bucket); err != nil {
		return "", err
	}
	key := name + ".tar.gz"
	if p.prefix != "" {
		key = p.prefix + "/" + key
	}
	if err := p.store.PutObject(ctx, p.bucket, key, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}
