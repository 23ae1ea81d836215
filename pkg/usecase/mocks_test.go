package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/sokoide/shopfront/pkg/domain"
)

var errBoom = errors.New("boom")

type mockCredentials struct {
	mu      sync.Mutex
	token   string
	present bool
	saveErr error
	loads   int
}

func (m *mockCredentials) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if !m.present {
		return "", domain.ErrNoCredential
	}
	return m.token, nil
}

func (m *mockCredentials) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token, m.present = token, true
	return nil
}

func (m *mockCredentials) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.present = "", false
	return nil
}

type mockAuth struct {
	payload  domain.AuthPayload
	err      error
	renews   int
	logins   int
	register []domain.Registration
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (domain.AuthPayload, error) {
	m.logins++
	return m.payload, m.err
}

func (m *mockAuth) Register(ctx context.Context, r domain.Registration) (domain.AuthPayload, error) {
	m.register = append(m.register, r)
	return m.payload, m.err
}

func (m *mockAuth) Renew(ctx context.Context) (domain.AuthPayload, error) {
	m.renews++
	return m.payload, m.err
}

// mockShop records every call; reads return the configured slices.
type mockShop struct {
	mu       sync.Mutex
	calls    []string
	writeErr error

	products []domain.Product
	cart     []domain.CartLine
	orders   []domain.Order
	bills    []domain.Bill
	paid     []domain.PaymentMethod
	created  []domain.NewProduct
}

func (m *mockShop) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockShop) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockShop) Products(ctx context.Context) ([]domain.Product, error) {
	m.record("GET /products")
	return m.products, nil
}

func (m *mockShop) CreateProduct(ctx context.Context, p domain.NewProduct) error {
	m.record("POST /products")
	m.created = append(m.created, p)
	return m.writeErr
}

func (m *mockShop) DeleteProduct(ctx context.Context, id string) error {
	m.record("DELETE /products/" + id)
	return m.writeErr
}

func (m *mockShop) Cart(ctx context.Context) ([]domain.CartLine, error) {
	m.record("GET /cart")
	return m.cart, nil
}

func (m *mockShop) AddToCart(ctx context.Context, productID string, quantity int) error {
	m.record("PUT /cart/add")
	return m.writeErr
}

func (m *mockShop) RemoveFromCart(ctx context.Context, productID string, quantity int) error {
	m.record("DELETE /cart/remove")
	return m.writeErr
}

func (m *mockShop) Orders(ctx context.Context) ([]domain.Order, error) {
	m.record("GET /orders")
	return m.orders, nil
}

func (m *mockShop) CreateOrder(ctx context.Context) error {
	m.record("POST /orders/create")
	return m.writeErr
}

func (m *mockShop) Bills(ctx context.Context) ([]domain.Bill, error) {
	m.record("GET /bills/orders")
	return m.bills, nil
}

func (m *mockShop) PayOrder(ctx context.Context, orderID string, method domain.PaymentMethod) error {
	m.record("POST /payments/pay/" + orderID)
	m.paid = append(m.paid, method)
	return m.writeErr
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, n := range m.sent {
		out[i] = n.Message
	}
	return out
}
