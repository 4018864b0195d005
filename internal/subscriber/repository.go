package subscriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/sitekit/sitekit/internal/store"
)

// ListKey is the store key holding the subscriber list as a JSON array.
const ListKey = "subscribers:list"

// Repository persists the set of subscriber emails.
// Emails passed in are already normalized.
type Repository interface {
	// Add inserts email unless present; returns whether it was added and the list size.
	Add(ctx context.Context, email string) (bool, int, error)
	// Remove deletes email if present; returns whether it was removed and the list size.
	Remove(ctx context.Context, email string) (bool, int, error)
	// List returns every subscriber.
	List(ctx context.Context) ([]string, error)
}

// ListRepository keeps subscribers as one JSON array under ListKey.
// Each change is a single atomic Update, so concurrent subscribers are never dropped.
type ListRepository struct {
	store store.Store
}

// NewListRepository creates a ListRepository on s.
func NewListRepository(s store.Store) *ListRepository {
	return &ListRepository{store: s}
}

// Add implements Repository.
func (r *ListRepository) Add(ctx context.Context, email string) (bool, int, error) {
	added := false
	list, err := store.UpdateJSON(ctx, r.store, ListKey, func(v *[]string) (bool, error) {
		added = false
		if indexOf(*v, email) >= 0 {
			return false, nil
		}
		*v = append(*v, email)
		added = true
		return true, nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("add subscriber: %w", err)
	}
	return added, len(list), nil
}

// Remove implements Repository.
func (r *ListRepository) Remove(ctx context.Context, email string) (bool, int, error) {
	removed := false
	list, err := store.UpdateJSON(ctx, r.store, ListKey, func(v *[]string) (bool, error) {
		removed = false
		i := indexOf(*v, email)
		if i < 0 {
			return false, nil
		}
		*v = append((*v)[:i], (*v)[i+1:]...)
		removed = true
		return true, nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("remove subscriber: %w", err)
	}
	return removed, len(list), nil
}

// List implements Repository. A missing key is an empty list.
func (r *ListRepository) List(ctx context.Context) ([]string, error) {
	list := make([]string, 0)
	err := store.GetJSON(ctx, r.store, ListKey, &list)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func indexOf(list []string, email string) int {
	for i, e := range list {
		if e == email {
			return i
		}
	}
	return -1
}
