package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/vthunder/postbot/internal/logging"
)

// GCSStore downloads model files from a Cloud Storage bucket.
// Files live under "<modelID>/" in the bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	scratch string
}

// NewGCSStore creates a store over bucket, downloading into scratch
func NewGCSStore(ctx context.Context, bucket, scratch string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud Storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, scratch: scratch}, nil
}

// Close closes the storage client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Fetch downloads every object directly under modelID/ into a private
// scratch directory
func (s *GCSStore) Fetch(ctx context.Context, modelID string) (*Bundle, error) {
	dir, err := scratchDir(s.scratch, modelID)
	if err != nil {
		return nil, err
	}
	bundle := &Bundle{ModelID: modelID, Dir: dir}

	bkt := s.client.Bucket(s.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: modelID + "/", Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			discard(bundle)
			return nil, fmt.Errorf("list gs://%s/%s/: %w", s.bucket, modelID, err)
		}
		// sub-directories come back as prefix-only entries
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		name := path.Base(attrs.Name)

		dst := filepath.Join(dir, name)
		if err := download(ctx, bkt.Object(attrs.Name), dst); err != nil {
			discard(bundle)
			return nil, err
		}
		bundle.Files = append(bundle.Files, dst)
	}

	logging.Info("artifacts", "Fetched gs://%s/%s/ into %s (%d new files)", s.bucket, modelID, dir, len(bundle.Files))
	return bundle, nil
}

func download(ctx context.Context, obj *storage.ObjectHandle, dst string) error {
	r, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", obj.ObjectName(), err)
	}
	defer r.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("download %s: %w", obj.ObjectName(), err)
	}
	return f.Close()
}
