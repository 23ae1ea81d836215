package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sokoide/shopfront/pkg/domain"
)

type cartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type payRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	return get[[]domain.Product](ctx, c, "/products", "/products")
}

func (c *Client) CreateProduct(ctx context.Context, p domain.NewProduct) error {
	return c.do(ctx, http.MethodPost, "/products", "/products", p, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/{id}", "/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Cart(ctx context.Context) ([]domain.CartLine, error) {
	return get[[]domain.CartLine](ctx, c, "/cart", "/cart")
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPut, "/cart/add", "/cart/add", cartRequest{ProductID: productID, Quantity: quantity}, nil)
}

// RemoveFromCart sends its arguments as a DELETE body.
func (c *Client) RemoveFromCart(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodDelete, "/cart/remove", "/cart/remove", cartRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	return get[[]domain.Order](ctx, c, "/orders", "/orders")
}

func (c *Client) CreateOrder(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/orders/create", "/orders/create", nil, nil)
}

func (c *Client) Bills(ctx context.Context) ([]domain.Bill, error) {
	return get[[]domain.Bill](ctx, c, "/bills/orders", "/bills/orders")
}

func (c *Client) PayOrder(ctx context.Context, orderID string, method domain.PaymentMethod) error {
	return c.do(ctx, http.MethodPost, "/payments/pay/{orderId}", "/payments/pay/"+url.PathEscape(orderID), payRequest{PaymentMethod: method}, nil)
}

var (
	_ domain.AuthAPI = (*Client)(nil)
	_ domain.ShopAPI = (*Client)(nil)
)
