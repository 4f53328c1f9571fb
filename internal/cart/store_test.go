package cart

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: map[string][]byte{}}
}

func (m *memoryStorage) Load(cartID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[cartID], nil
}

func (m *memoryStorage) Save(cartID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[cartID] = data
	return nil
}

func (m *memoryStorage) Delete(cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, cartID)
	return nil
}

// flakyStorage fails every Load while loadErr is set
type flakyStorage struct {
	*memoryStorage
	loadErr error
}

func (f *flakyStorage) Load(cartID string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.memoryStorage.Load(cartID)
}

type recordingNotifier struct {
	calls int
	err   error
}

func (n *recordingNotifier) CartChanged(cartID string, items []Item) error {
	n.calls++
	return n.err
}

func kabob(options []string, addons ...Addon) Item {
	return Item{
		MenuItemID:      "kabob1",
		Name:            "Kabob Plate",
		Price:           decimal.RequireFromString("10.00"),
		SelectedOptions: options,
		SelectedAddons:  addons,
	}
}

func TestAddCollapsesIdenticalSelections(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	rice := Addon{Name: "extra rice", Price: decimal.NewFromInt(1)}
	sauce := Addon{Name: "garlic sauce", Price: decimal.RequireFromString("0.50")}

	if _, err := store.Add("cart-a", kabob([]string{"Beef", "Spicy"}, rice, sauce)); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := store.Add("cart-a", kabob([]string{" Spicy", "Beef"}, sauce, rice))
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", items)
	}
	if items[0].ID != "kabob1-Beef|Spicy-extra rice|garlic sauce" {
		t.Fatalf("line id = %q", items[0].ID)
	}

	items, _ = store.Add("cart-a", kabob([]string{"Chicken"}, rice))
	if len(items) != 2 {
		t.Fatalf("different selection must be its own line, got %d", len(items))
	}
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	items, _ := store.Add("cart-b", kabob(nil))
	id := items[0].ID

	items, err := store.UpdateQuantity("cart-b", id, 4)
	if err != nil || items[0].Quantity != 4 {
		t.Fatalf("update: %+v %v", items, err)
	}
	if _, err := store.UpdateQuantity("cart-b", "nope", 2); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
	items, _ = store.UpdateQuantity("cart-b", id, 0)
	if len(items) != 0 {
		t.Fatalf("quantity 0 should remove, got %+v", items)
	}

	items, _ = store.Add("cart-b", kabob(nil))
	items, _ = store.Remove("cart-b", items[0].ID)
	if len(items) != 0 {
		t.Fatalf("remove left %+v", items)
	}
	if _, err := store.Remove("cart-b", "missing"); err != nil {
		t.Fatalf("remove of missing line should be a no-op: %v", err)
	}
}

func TestReplaceMergesIntoExistingIdentity(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	store.Add("cart-c", kabob([]string{"Beef"}))
	items, _ := store.Add("cart-c", kabob([]string{"Chicken"}))
	chickenID := items[1].ID

	items, err := store.Replace("cart-c", chickenID, kabob([]string{"Beef"}), 0)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected merge into beef line with qty 2, got %+v", items)
	}

	items, _ = store.Replace("cart-c", items[0].ID, kabob([]string{"Lamb"}), 3)
	if len(items) != 1 || items[0].SelectedOptions[0] != "Lamb" || items[0].Quantity != 3 {
		t.Fatalf("expected lamb line qty 3, got %+v", items)
	}
}

func TestGetToleratesCorruptStorage(t *testing.T) {
	storage := newMemoryStorage()
	storage.data["cart-d"] = []byte("{not json")
	store := NewStore(storage, nil)

	items, err := store.Get("cart-d")
	if err != nil || len(items) != 0 {
		t.Fatalf("corrupt storage should yield empty cart, got %+v %v", items, err)
	}
	items, err = store.Get("absent")
	if err != nil || len(items) != 0 {
		t.Fatalf("absent cart should be empty, got %+v %v", items, err)
	}
	if _, err := store.Get("bad id!"); !errors.Is(err, ErrCartIDInvalid) {
		t.Fatalf("expected ErrCartIDInvalid, got %v", err)
	}
}

func TestMutationsKeepCartWhenLoadFails(t *testing.T) {
	storage := &flakyStorage{memoryStorage: newMemoryStorage()}
	notifier := &recordingNotifier{}
	store := NewStore(storage, notifier)
	store.Add("cart-l", kabob([]string{"Beef"}))
	store.Add("cart-l", kabob([]string{"Chicken"}))
	before := append([]byte(nil), storage.data["cart-l"]...)

	timeout := errors.New("db timeout")
	storage.loadErr = timeout
	if _, err := store.Add("cart-l", kabob([]string{"Lamb"})); !errors.Is(err, timeout) {
		t.Fatalf("add should surface the load error, got %v", err)
	}
	if _, err := store.UpdateQuantity("cart-l", "kabob1-Beef-", 3); !errors.Is(err, timeout) {
		t.Fatalf("update should surface the load error, got %v", err)
	}
	if _, err := store.Replace("cart-l", "kabob1-Beef-", kabob([]string{"Lamb"}), 1); !errors.Is(err, timeout) {
		t.Fatalf("replace should surface the load error, got %v", err)
	}
	if string(storage.data["cart-l"]) != string(before) {
		t.Fatalf("stored cart changed after failed reads")
	}
	if notifier.calls != 2 {
		t.Fatalf("failed mutations must not notify, calls = %d", notifier.calls)
	}
	items, err := store.Get("cart-l")
	if err != nil || len(items) != 0 {
		t.Fatalf("get stays forgiving on a failed read, got %+v %v", items, err)
	}

	storage.loadErr = nil
	items, _ = store.Get("cart-l")
	if len(items) != 2 {
		t.Fatalf("expected both lines intact, got %+v", items)
	}
}

func TestMutationReplacesCorruptSnapshot(t *testing.T) {
	storage := newMemoryStorage()
	storage.data["cart-m"] = []byte("{not json")
	store := NewStore(storage, nil)

	items, err := store.Add("cart-m", kabob(nil))
	if err != nil || len(items) != 1 {
		t.Fatalf("corrupt snapshot should read as empty on write, got %+v %v", items, err)
	}
}

func TestAddCountsOneUnitPerCall(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	item := kabob(nil)
	item.Quantity = 5

	items, _ := store.Add("cart-n", item)
	if items[0].Quantity != 1 {
		t.Fatalf("first add should append quantity 1, got %d", items[0].Quantity)
	}
	items, _ = store.Add("cart-n", item)
	if items[0].Quantity != 2 {
		t.Fatalf("second add should increment to 2, got %d", items[0].Quantity)
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("hub down")}
	store := NewStore(newMemoryStorage(), notifier)

	items, err := store.Add("cart-e", kabob(nil))
	if err != nil || len(items) != 1 {
		t.Fatalf("add should succeed despite notifier failure: %v", err)
	}
	if err := store.Clear("cart-e"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if notifier.calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", notifier.calls)
	}
	items, _ = store.Get("cart-e")
	if len(items) != 0 {
		t.Fatalf("cart should be empty after clear")
	}
}

func TestAddRejectsInvalidItems(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	if _, err := store.Add("cart-f", Item{Name: "no id"}); !errors.Is(err, ErrItemInvalid) {
		t.Fatalf("expected ErrItemInvalid, got %v", err)
	}
	bad := kabob(nil)
	bad.Price = decimal.NewFromInt(-1)
	if _, err := store.Add("cart-f", bad); !errors.Is(err, ErrPriceInvalid) {
		t.Fatalf("expected ErrPriceInvalid, got %v", err)
	}
}

func TestSubtotalAndCount(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	rice := Addon{Name: "extra rice", Price: decimal.NewFromInt(1)}
	store.Add("cart-g", kabob(nil, rice))
	items, _ := store.Add("cart-g", kabob(nil, rice))

	if Count(items) != 2 {
		t.Fatalf("count = %d", Count(items))
	}
	if got := Subtotal(items).StringFixed(2); got != "22.00" {
		t.Fatalf("subtotal = %s", got)
	}
	if got := items[0].DisplayName(); got != "Kabob Plate" {
		t.Fatalf("display name = %s", got)
	}
	if got := kabob([]string{"Spicy", "Beef"}).Normalize().DisplayName(); got != "Kabob Plate (Beef, Spicy)" {
		t.Fatalf("display name = %s", got)
	}
}

func TestConcurrentAddsOnSameCart(t *testing.T) {
	store := NewStore(newMemoryStorage(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Add("cart-h", kabob(nil))
		}()
	}
	wg.Wait()
	items, _ := store.Get("cart-h")
	if len(items) != 1 || items[0].Quantity != 20 {
		t.Fatalf("expected quantity 20, got %+v", items)
	}
}
