package session

import (
	"context"

	"cloud.google.com/go/firestore"

	"tritonthenix/utils"
)

const collection = "sessions"

type firestoreStore struct {
	db *firestore.Client
}

var _ Store = (*firestoreStore)(nil)

func NewFirestoreStore(db *firestore.Client) Store {
	return &firestoreStore{db: db}
}

func (f *firestoreStore) Save(ctx context.Context, s *Session) error {
	_, err := f.db.Collection(collection).Doc(s.TokenHash).Set(ctx, s)
	return err
}

func (f *firestoreStore) Get(ctx context.Context, tokenHash string) (*Session, error) {
	doc, err := f.db.Collection(collection).Doc(tokenHash).Get(ctx)
	if utils.IsNotFound(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s := &Session{}
	if err := doc.DataTo(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *firestoreStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := f.db.Collection(collection).Doc(tokenHash).Delete(ctx, firestore.Exists)
	if utils.IsNotFound(err) {
		return ErrSessionNotFound
	}
	return err
}
