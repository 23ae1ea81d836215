package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// the remote API exchanges prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// SessionStatus is the authentication state of the running client.
type SessionStatus string

const (
	StatusChecking         SessionStatus = "checking"
	StatusAuthenticated    SessionStatus = "authenticated"
	StatusNotAuthenticated SessionStatus = "not_authenticated"
)

// Role gates administrative affordances. Values match the remote API.
type Role int

const (
	RoleAdmin  Role = 1
	RoleClient Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleClient:
		return "client"
	default:
		return "unknown"
	}
}

// UserIdentity is the identity returned by login, register and renew.
type UserIdentity struct {
	ID   string `json:"userId"`
	Role Role   `json:"role"`
}

// IsZero reports whether no identity is held.
func (u UserIdentity) IsZero() bool {
	return u.ID == "" && u.Role == 0
}

// AuthPayload is the `data` object of every auth response.
type AuthPayload struct {
	Token string `json:"token"`
	UserIdentity
}

// Product is a catalog entry.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Media       []string        `json:"multimedia"`
	Price       decimal.Decimal `json:"price"`
}

// CartLine is the local view of one server-held cart line.
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Media     []string        `json:"multimedia,omitempty"`
}

// LineItem is a product reference inside an order or a bill.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Order is a pending (payable) order.
type Order struct {
	ID        string          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
	Products  []LineItem      `json:"products"`
}

// Bill is created by a successful payment and never changes.
type Bill struct {
	ID       string          `json:"id"`
	Price    decimal.Decimal `json:"price"`
	BilledAt time.Time       `json:"billedAt"`
	Method   PaymentMethod   `json:"method"`
	Products []LineItem      `json:"products"`
}

// PaymentMethod is accepted by the payments endpoint.
type PaymentMethod string

const (
	PaymentCurrentAccount PaymentMethod = "CUENTA_CORRIENTE"
	PaymentCash           PaymentMethod = "EFECTIVO"
	PaymentCard           PaymentMethod = "TARJETA"
)

// PaymentMethods lists the methods in the order they are offered.
var PaymentMethods = []PaymentMethod{PaymentCurrentAccount, PaymentCash, PaymentCard}

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// IVACondition is the tax condition sent on registration.
type IVACondition string

const (
	IVARegistered    IVACondition = "Responsable Inscripto"
	IVAMonotributo   IVACondition = "Monotributista"
	IVAFinalConsumer IVACondition = "Consumidor Final"
)

var IVAConditions = []IVACondition{IVARegistered, IVAMonotributo, IVAFinalConsumer}

// Registration is the body of POST /auth/register.
type Registration struct {
	Name         string       `json:"name"`
	LastName     string       `json:"lastName"`
	Address      string       `json:"address"`
	DNI          int          `json:"dni"`
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	Role         Role         `json:"role"`
	IVACondition IVACondition `json:"ivaCondition"`
}

// NewProduct is the body of POST /products.
type NewProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Media       []string        `json:"multimedia"`
	Price       decimal.Decimal `json:"price"`
}

// ItemCount sums the quantities of items.
func ItemCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// CartTotal is Σ price·quantity over the cart, rounded to cents.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}
