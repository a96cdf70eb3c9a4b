// README: User profile reads on top of the document store.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/docstore"
)

const usersCollection = "users"

var ErrNotFound = errors.New("user not found")

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := s.docs.Get(ctx, usersCollection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", uid, err)
	}
	return profileFromDoc(doc), nil
}

func (s *Store) FindByUserID(ctx context.Context, userID string) (*Profile, error) {
	docs, err := s.docs.Query(ctx, usersCollection, docstore.Where("user_id", docstore.OpEqual, userID).WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return profileFromDoc(docs[0]), nil
}

func profileFromDoc(doc *docstore.Document) *Profile {
	str := func(key string) string {
		v, _ := doc.Data[key].(string)
		return strings.TrimSpace(v)
	}
	return &Profile{UID: doc.ID, UserID: str("user_id"), Phone: str("phone")}
}
