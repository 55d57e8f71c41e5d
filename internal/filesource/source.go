// Package filesource turns file references given on the command line into
// upload candidates. A reference is either a local path or an object in
// MinIO/S3 compatible storage written as s3://bucket/key.
package filesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"musicworks/internal/upload"
)

const objectScheme = "s3://"

var (
	// ErrNoObjectStore indicates an s3:// reference without a configured store.
	ErrNoObjectStore = errors.New("object store not configured")
	// ErrBadReference indicates a malformed s3:// reference.
	ErrBadReference = errors.New("invalid object reference")
)

// ObjectStore is the object storage surface the resolver needs.
type ObjectStore interface {
	Size(ctx context.Context, bucket, key string) (int64, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
}

// Resolver maps references to candidates and writes output files.
type Resolver struct {
	objects ObjectStore
}

// NewResolver builds a resolver. objects may be nil when only local paths
// are used.
func NewResolver(objects ObjectStore) *Resolver {
	return &Resolver{objects: objects}
}

// Resolve stats ref and returns a candidate that opens it lazily.
func (r *Resolver) Resolve(ctx context.Context, ref string) (upload.Candidate, error) {
	ref = strings.TrimSpace(ref)
	if IsObjectRef(ref) {
		bucket, key, err := ParseObjectRef(ref)
		if err != nil {
			return upload.Candidate{}, err
		}
		if r.objects == nil {
			return upload.Candidate{}, ErrNoObjectStore
		}
		size, err := r.objects.Size(ctx, bucket, key)
		if err != nil {
			return upload.Candidate{}, fmt.Errorf("stat %s: %w", ref, err)
		}
		return upload.Candidate{
			Name: path.Base(key),
			Size: size,
			Open: func() (io.ReadCloser, error) {
				return r.objects.Open(ctx, bucket, key)
			},
		}, nil
	}
	return Local(ref)
}

// ResolveAll resolves every reference, stopping at the first failure.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) ([]upload.Candidate, error) {
	out := make([]upload.Candidate, 0, len(refs))
	for _, ref := range refs {
		c, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Write stores data at ref, either a local path or an s3:// object.
func (r *Resolver) Write(ctx context.Context, ref string, data []byte, contentType string) error {
	ref = strings.TrimSpace(ref)
	if !IsObjectRef(ref) {
		if err := os.WriteFile(ref, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", ref, err)
		}
		return nil
	}
	bucket, key, err := ParseObjectRef(ref)
	if err != nil {
		return err
	}
	if r.objects == nil {
		return ErrNoObjectStore
	}
	return r.objects.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// Local builds a candidate for a file on disk.
func Local(p string) (upload.Candidate, error) {
	info, err := os.Stat(p)
	if err != nil {
		return upload.Candidate{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return upload.Candidate{}, fmt.Errorf("%s is a directory", p)
	}
	return upload.Candidate{
		Name: filepath.Base(p),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(p)
		},
	}, nil
}

func IsObjectRef(ref string) bool {
	return strings.HasPrefix(ref, objectScheme)
}

// ParseObjectRef splits s3://bucket/key.
func ParseObjectRef(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, objectScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return bucket, key, nil
}
