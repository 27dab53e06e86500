package utils

import (
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func ToPointer[T any](value T) *T {
	return &value
}

func GetAllToStructs[T any](docs []*firestore.DocumentSnapshot) ([]T, error) {
	result := make([]T, len(docs))
	for i, doc := range docs {
		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, fmt.Errorf("failed to convert doc %s: %w", doc.Ref.ID, err)
		}
		result[i] = item
	}
	return result, nil
}

// IteratorToStructs drains a document iterator, skipping documents that no
// longer exist.
func IteratorToStructs[T any](iter *firestore.DocumentIterator) ([]T, error) {
	defer iter.Stop()
	result := make([]T, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !doc.Exists() {
			continue
		}
		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, fmt.Errorf("failed to convert doc %s: %w", doc.Ref.ID, err)
		}
		result = append(result, item)
	}
	return result, nil
}

// IsNotFound reports whether err is a Firestore NOT_FOUND status.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
