// Package apitest is an in-memory stand-in for the shop's remote API. It
// speaks the same routes, envelope and x-token header as the real service.
package apitest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const tokenHeader = "x-token"

type Server struct {
	router *mux.Router
	store  *store
	log    zerolog.Logger
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l.With().Str("pkg", "apitest").Logger() }
}

// WithClock fixes the timestamps written on orders and bills.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.store.now = now }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		store: newStore(time.Now),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequest)
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/auth/renew", s.handleRenew).Methods("GET")
	authed.HandleFunc("/products", s.handleListProducts).Methods("GET")
	authed.HandleFunc("/products", s.requireAdmin(s.handleCreateProduct)).Methods("POST")
	authed.HandleFunc("/products/{id}", s.requireAdmin(s.handleDeleteProduct)).Methods("DELETE")
	authed.HandleFunc("/cart", s.handleCart).Methods("GET")
	authed.HandleFunc("/cart/add", s.handleAddToCart).Methods("PUT")
	authed.HandleFunc("/cart/remove", s.handleRemoveFromCart).Methods("DELETE")
	authed.HandleFunc("/orders", s.handleListOrders).Methods("GET")
	authed.HandleFunc("/orders/create", s.handleCreateOrder).Methods("POST")
	authed.HandleFunc("/bills/orders", s.handleListBills).Methods("GET")
	authed.HandleFunc("/payments/pay/{orderId}", s.handlePay).Methods("POST")
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SeedProduct adds a catalog entry directly, bypassing authentication.
func (s *Server) SeedProduct(np domain.NewProduct) domain.Product {
	return s.store.addProduct(np)
}

// SeedUser registers an account directly and returns its first token.
func (s *Server) SeedUser(reg domain.Registration) (domain.AuthPayload, error) {
	return s.store.register(reg)
}

type userKey struct{}

func userFrom(ctx context.Context) *user {
	u, _ := ctx.Value(userKey{}).(*user)
	return u
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-Id")).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.store.authenticate(r.Header.Get(tokenHeader))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if u := userFrom(r.Context()); u == nil || u.role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, domain.ErrForbidden)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := s.store.login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !decode(w, r, &reg) {
		return
	}
	if reg.Email == "" || reg.Password == "" {
		writeError(w, http.StatusBadRequest, errors.New("email and password are required"))
		return
	}
	p, err := s.store.register(reg)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.renew(r.Header.Get(tokenHeader))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.store.listProducts())
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var np domain.NewProduct
	if !decode(w, r, &np) {
		return
	}
	writeData(w, http.StatusCreated, s.store.addProduct(np))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteProduct(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.store.cart(userFrom(r.Context()).id))
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.addToCart(userFrom(r.Context()).id, req.ProductID, req.Quantity); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeData(w, http.StatusOK, s.store.cart(userFrom(r.Context()).id))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.removeFromCart(userFrom(r.Context()).id, req.ProductID, req.Quantity); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeData(w, http.StatusOK, s.store.cart(userFrom(r.Context()).id))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.store.listOrders(userFrom(r.Context()).id))
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.createOrder(userFrom(r.Context()).id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeData(w, http.StatusCreated, o)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.store.listBills(userFrom(r.Context()).id))
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	}
	if !decode(w, r, &req) {
		return
	}
	b, err := s.store.pay(userFrom(r.Context()).id, mux.Vars(r)["orderId"], req.PaymentMethod)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeData(w, http.StatusOK, b)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, errNotInCart):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
