package apitest

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoide/shopfront/pkg/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	errEmailTaken   = errors.New("email already registered")
	errBadLogin     = errors.New("invalid email or password")
	errEmptyCart    = errors.New("cart is empty")
	errNotInCart    = errors.New("product not in cart")
	errBadMethod    = errors.New("invalid payment method")
	errBadQuantity  = errors.New("quantity must be positive")
	errUnauthorized = errors.New("missing or invalid token")
)

type user struct {
	id           string
	email        string
	passwordHash []byte
	role         domain.Role
	reg          domain.Registration
}

// store is the in-memory state behind the fake API. Carts, orders and bills
// are kept per user.
type store struct {
	mu  sync.Mutex
	now func() time.Time

	users    map[string]*user // by email
	tokens   map[string]*user
	products []domain.Product
	carts    map[string][]domain.LineItem
	orders   map[string][]domain.Order
	bills    map[string][]domain.Bill
}

func newStore(now func() time.Time) *store {
	return &store{
		now:    now,
		users:  make(map[string]*user),
		tokens: make(map[string]*user),
		carts:  make(map[string][]domain.LineItem),
		orders: make(map[string][]domain.Order),
		bills:  make(map[string][]domain.Bill),
	}
}

func (s *store) issue(u *user) domain.AuthPayload {
	token := uuid.NewString()
	s.tokens[token] = u
	return domain.AuthPayload{Token: token, UserIdentity: domain.UserIdentity{ID: u.id, Role: u.role}}
}

func (s *store) register(reg domain.Registration) (domain.AuthPayload, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.MinCost)
	if err != nil {
		return domain.AuthPayload{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[reg.Email]; ok {
		return domain.AuthPayload{}, errEmailTaken
	}
	role := reg.Role
	if role != domain.RoleAdmin {
		role = domain.RoleClient
	}
	reg.Password = ""
	u := &user{id: uuid.NewString(), email: reg.Email, passwordHash: hash, role: role, reg: reg}
	s.users[reg.Email] = u
	return s.issue(u), nil
}

func (s *store) login(email, password string) (domain.AuthPayload, error) {
	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		return domain.AuthPayload{}, errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return domain.AuthPayload{}, errBadLogin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(u), nil
}

func (s *store) authenticate(token string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.tokens[token]
	if !ok {
		return nil, errUnauthorized
	}
	return u, nil
}

// renew replaces token with a fresh one.
func (s *store) renew(token string) (domain.AuthPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.tokens[token]
	if !ok {
		return domain.AuthPayload{}, errUnauthorized
	}
	delete(s.tokens, token)
	return s.issue(u), nil
}

func (s *store) listProducts() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *store) addProduct(np domain.NewProduct) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        np.Name,
		Description: np.Description,
		Media:       np.Media,
		Price:       np.Price,
	}
	s.products = append(s.products, p)
	return p
}

func (s *store) deleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (s *store) product(id string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// cart returns the user's cart joined with the catalog. Lines whose
// product was deleted are skipped.
func (s *store) cart(userID string) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, 0, len(s.carts[userID]))
	for _, item := range s.carts[userID] {
		p, ok := s.product(item.ProductID)
		if !ok {
			continue
		}
		out = append(out, domain.CartLine{
			ProductID: p.ID,
			Quantity:  item.Quantity,
			Name:      p.Name,
			Price:     p.Price,
			Media:     p.Media,
		})
	}
	return out
}

func (s *store) addToCart(userID, productID string, qty int) error {
	if qty <= 0 {
		return errBadQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.product(productID); !ok {
		return domain.ErrProductNotFound
	}
	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			return nil
		}
	}
	s.carts[userID] = append(items, domain.LineItem{ProductID: productID, Quantity: qty})
	return nil
}

func (s *store) removeFromCart(userID, productID string, qty int) error {
	if qty <= 0 {
		return errBadQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		items[i].Quantity -= qty
		if items[i].Quantity <= 0 {
			items = append(items[:i], items[i+1:]...)
		}
		s.carts[userID] = items
		return nil
	}
	return errNotInCart
}

// createOrder moves the cart into a new pending order priced at the cart total.
func (s *store) createOrder(userID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID]
	if len(items) == 0 {
		return domain.Order{}, errEmptyCart
	}
	total := decimal.Zero
	for _, item := range items {
		if p, ok := s.product(item.ProductID); ok {
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	o := domain.Order{
		ID:        uuid.NewString(),
		Price:     total.Round(2),
		CreatedAt: s.now(),
		Products:  items,
	}
	s.orders[userID] = append(s.orders[userID], o)
	delete(s.carts, userID)
	return o, nil
}

func (s *store) listOrders(userID string) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, len(s.orders[userID]))
	copy(out, s.orders[userID])
	return out
}

func (s *store) listBills(userID string) []domain.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Bill, len(s.bills[userID]))
	copy(out, s.bills[userID])
	return out
}

// pay turns a pending order into a bill.
func (s *store) pay(userID, orderID string, method domain.PaymentMethod) (domain.Bill, error) {
	if !method.Valid() {
		return domain.Bill{}, errBadMethod
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.orders[userID]
	for i, o := range orders {
		if o.ID != orderID {
			continue
		}
		b := domain.Bill{
			ID:       o.ID,
			Price:    o.Price,
			BilledAt: s.now(),
			Method:   method,
			Products: o.Products,
		}
		s.orders[userID] = append(orders[:i], orders[i+1:]...)
		s.bills[userID] = append(s.bills[userID], b)
		return b, nil
	}
	return domain.Bill{}, domain.ErrOrderNotFound
}
