package domain

import (
	"context"
	"time"
)

// CredentialStore persists the bearer credential across process restarts.
// Load returns ErrNoCredential when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// AuthAPI covers the auth endpoints of the remote API.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (AuthPayload, error)
	Register(ctx context.Context, r Registration) (AuthPayload, error)
	Renew(ctx context.Context) (AuthPayload, error)
}

// ShopAPI covers catalog, cart, order, bill and payment endpoints.
type ShopAPI interface {
	Products(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, p NewProduct) error
	DeleteProduct(ctx context.Context, id string) error

	Cart(ctx context.Context) ([]CartLine, error)
	AddToCart(ctx context.Context, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, productID string, quantity int) error

	Orders(ctx context.Context) ([]Order, error)
	CreateOrder(ctx context.Context) error
	Bills(ctx context.Context) ([]Bill, error)
	PayOrder(ctx context.Context, orderID string, method PaymentMethod) error
}

// NotificationKind classifies a toast.
type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient message shown to the user.
type Notification struct {
	ID       string           `json:"id"`
	Kind     NotificationKind `json:"kind"`
	Message  string           `json:"message"`
	Duration time.Duration    `json:"duration"`
	At       time.Time        `json:"at"`
}

// Notifier delivers notifications. Implementations must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
