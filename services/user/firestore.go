package user

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"tritonthenix/utils"
)

const userCollection = "users"

type firestoreRepository struct {
	db *firestore.Client
}

var _ Repository = (*firestoreRepository)(nil)

func NewFirestoreRepository(db *firestore.Client) Repository {
	return &firestoreRepository{db: db}
}

func (r *firestoreRepository) Get(ctx context.Context, email string) (*Profile, error) {
	doc, err := r.db.Collection(userCollection).Doc(email).Get(ctx)
	if utils.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := &Profile{}
	if err := doc.DataTo(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *firestoreRepository) GetMany(ctx context.Context, emails []string) ([]Profile, error) {
	refs := make([]*firestore.DocumentRef, 0, len(emails))
	for _, e := range emails {
		refs = append(refs, r.db.Collection(userCollection).Doc(e))
	}
	docs, err := r.db.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	existing := docs[:0]
	for _, doc := range docs {
		if doc.Exists() {
			existing = append(existing, doc)
		}
	}
	return utils.GetAllToStructs[Profile](existing)
}

func (r *firestoreRepository) Save(ctx context.Context, p Profile) error {
	_, err := r.db.Collection(userCollection).Doc(p.Email).Set(ctx, p)
	return err
}

func (r *firestoreRepository) SetPicture(ctx context.Context, email, url string, at time.Time) error {
	_, err := r.db.Collection(userCollection).Doc(email).Update(ctx, []firestore.Update{
		{Path: "profilePicture", Value: url},
		{Path: "updatedAt", Value: at},
	})
	if utils.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}
