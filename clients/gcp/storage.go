package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
)

var ErrObjectNotFound = errors.New("object not found")

const publicHost = "https://storage.googleapis.com"

// Bucket stores publicly readable objects in one Cloud Storage bucket.
type Bucket struct {
	name   string
	handle *storage.BucketHandle
}

func NewBucket(client *storage.Client, name string) *Bucket {
	return &Bucket{name: name, handle: client.Bucket(name)}
}

// PublicURL is the address an object is served from.
func PublicURL(bucket, object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", publicHost, bucket, strings.Join(segments, "/"))
}

// Put uploads r to object, replacing any existing content, and returns the
// public URL.
func (b *Bucket) Put(ctx context.Context, object, contentType string, r io.Reader) (string, error) {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", object, err)
	}
	log.Debug().Str("bucket", b.name).Str("object", object).Msg("object uploaded")
	return PublicURL(b.name, object), nil
}

func (b *Bucket) Delete(ctx context.Context, object string) error {
	err := b.handle.Object(object).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", object, err)
	}
	return nil
}
