package api

import (
	"context"
	"net/http"

	"github.com/sokoide/shopfront/pkg/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthPayload, error) {
	var env envelope[domain.AuthPayload]
	err := c.do(ctx, http.MethodPost, "/auth/login", "/auth/login", loginRequest{Email: email, Password: password}, &env)
	return env.Data, err
}

func (c *Client) Register(ctx context.Context, r domain.Registration) (domain.AuthPayload, error) {
	var env envelope[domain.AuthPayload]
	err := c.do(ctx, http.MethodPost, "/auth/register", "/auth/register", r, &env)
	return env.Data, err
}

func (c *Client) Renew(ctx context.Context) (domain.AuthPayload, error) {
	return get[domain.AuthPayload](ctx, c, "/auth/renew", "/auth/renew")
}
