package domain

import "errors"

var (
	ErrNoCredential     = errors.New("no persisted credential")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("action requires the admin role")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
)
