package cart

import (
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/repository"
)

var (
	ErrCartIDInvalid = errors.New("Invalid cart id")
	ErrItemInvalid   = errors.New("Invalid item data")
	ErrPriceInvalid  = errors.New("Invalid item price or quantity")
	ErrLineNotFound  = errors.New("Cart item not found")
)

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Storage persists one serialized collection per cart
type Storage interface {
	Load(cartID string) ([]byte, error) // nil when absent
	Save(cartID string, data []byte) error
	Delete(cartID string) error
}

// Notifier is told about every persisted change
type Notifier interface {
	CartChanged(cartID string, items []Item) error
}

const lockStripes = 64

// Store applies cart mutations and persists the whole collection each time
type Store struct {
	storage  Storage
	notifier Notifier
	locks    [lockStripes]sync.Mutex
}

// NewStore builds a store; notifier may be nil
func NewStore(storage Storage, notifier Notifier) *Store {
	return &Store{storage: storage, notifier: notifier}
}

// ValidCartID reports whether id is usable as a cart key
func ValidCartID(id string) bool {
	return cartIDPattern.MatchString(id)
}

// Get returns the current lines, empty when absent or unreadable
func (s *Store) Get(cartID string) ([]Item, error) {
	if !ValidCartID(cartID) {
		return nil, ErrCartIDInvalid
	}
	items, err := s.load(cartID)
	if err != nil {
		// reads stay forgiving, only writes need the stored state
		return []Item{}, nil
	}
	return items, nil
}

// Add bumps the line with the same identity by one, or appends it with
// quantity 1. The incoming Quantity is ignored; UpdateQuantity sets counts.
func (s *Store) Add(cartID string, item Item) ([]Item, error) {
	item = item.Normalize()
	if err := validateItem(item); err != nil {
		return nil, err
	}
	return s.mutate(cartID, func(items []Item) ([]Item, error) {
		if idx := indexOf(items, item.ID); idx >= 0 {
			items[idx].Quantity++
			return items, nil
		}
		item.Quantity = 1
		return append(items, item), nil
	})
}

// UpdateQuantity sets a line quantity, n <= 0 removes the line
func (s *Store) UpdateQuantity(cartID, lineID string, n int) ([]Item, error) {
	return s.mutate(cartID, func(items []Item) ([]Item, error) {
		idx := indexOf(items, lineID)
		if idx < 0 {
			return nil, ErrLineNotFound
		}
		if n <= 0 {
			return append(items[:idx], items[idx+1:]...), nil
		}
		items[idx].Quantity = n
		return items, nil
	})
}

// Remove drops a line, a missing line is not an error
func (s *Store) Remove(cartID, lineID string) ([]Item, error) {
	return s.mutate(cartID, func(items []Item) ([]Item, error) {
		if idx := indexOf(items, lineID); idx >= 0 {
			return append(items[:idx], items[idx+1:]...), nil
		}
		return items, nil
	})
}

// Replace swaps a line for an edited one. The edited line merges into an
// existing line with the same identity. quantity is floored at 1.
func (s *Store) Replace(cartID, oldLineID string, item Item, quantity int) ([]Item, error) {
	item = item.Normalize()
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if quantity < 1 {
		quantity = 1
	}
	return s.mutate(cartID, func(items []Item) ([]Item, error) {
		if idx := indexOf(items, oldLineID); idx >= 0 {
			items = append(items[:idx], items[idx+1:]...)
		}
		if idx := indexOf(items, item.ID); idx >= 0 {
			items[idx].Quantity += quantity
			return items, nil
		}
		item.Quantity = quantity
		return append(items, item), nil
	})
}

// Clear empties the cart and removes its snapshot
func (s *Store) Clear(cartID string) error {
	if !ValidCartID(cartID) {
		return ErrCartIDInvalid
	}
	mu := s.lock(cartID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.storage.Delete(cartID); err != nil {
		return err
	}
	s.notify(cartID, []Item{})
	return nil
}

func (s *Store) mutate(cartID string, apply func([]Item) ([]Item, error)) ([]Item, error) {
	if !ValidCartID(cartID) {
		return nil, ErrCartIDInvalid
	}
	mu := s.lock(cartID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.load(cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	items, err := apply(current)
	if err != nil {
		return nil, err
	}
	data, err := Encode(items)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Save(cartID, data); err != nil {
		return nil, err
	}
	s.notify(cartID, items)
	return items, nil
}

// load returns storage errors as is. A corrupt snapshot is not an error, it
// reads as an empty cart so the next write replaces it.
func (s *Store) load(cartID string) ([]Item, error) {
	data, err := s.storage.Load(cartID)
	if err != nil {
		logger.Warnw("cart_load_failed", "cart_id", cartID, "error", err)
		return nil, err
	}
	items, ok := Decode(data)
	if !ok {
		logger.Warnw("cart_snapshot_corrupt", "cart_id", cartID)
	}
	return items, nil
}

func (s *Store) notify(cartID string, items []Item) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CartChanged(cartID, items); err != nil {
		logger.Warnw("cart_notify_failed", "cart_id", cartID, "error", err)
	}
}

func (s *Store) lock(cartID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(cartID))
	return &s.locks[h.Sum32()%lockStripes]
}

func indexOf(items []Item, lineID string) int {
	for i := range items {
		if items[i].ID == lineID {
			return i
		}
	}
	return -1
}

func validateItem(item Item) error {
	if item.MenuItemID == "" || item.Name == "" {
		return ErrItemInvalid
	}
	if item.Price.IsNegative() || item.Quantity < 0 {
		return ErrPriceInvalid
	}
	for _, a := range item.SelectedAddons {
		if a.Price.IsNegative() {
			return ErrPriceInvalid
		}
	}
	return nil
}

// RepositoryStorage keeps snapshots in the carts table
type RepositoryStorage struct {
	repo repository.CartRepository
}

// NewRepositoryStorage adapts a cart repository
func NewRepositoryStorage(repo repository.CartRepository) *RepositoryStorage {
	return &RepositoryStorage{repo: repo}
}

func (r *RepositoryStorage) Load(cartID string) ([]byte, error) {
	row, err := r.repo.Get(cartID)
	if err != nil || row == nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(row.Items)), nil
}

func (r *RepositoryStorage) Save(cartID string, data []byte) error {
	return r.repo.Save(cartID, string(data))
}

func (r *RepositoryStorage) Delete(cartID string) error {
	return r.repo.Delete(cartID)
}
