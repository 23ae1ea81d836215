package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sokoide/shopfront/pkg/domain"
)

type dashboardFixture struct {
	shop     *mockShop
	notifier *mockNotifier
	session  *SessionStore
	kb       *Keyboard
	d        *Dashboard
}

func newDashboardFixture(t *testing.T, role domain.Role, policy SettlementPolicy) *dashboardFixture {
	t.Helper()
	f := &dashboardFixture{
		shop:     &mockShop{},
		notifier: &mockNotifier{},
		kb:       NewKeyboard(),
	}
	f.session = NewSessionStore(&mockCredentials{}, &mockAuth{}, zerolog.Nop())
	err := f.session.Login(context.Background(), domain.AuthPayload{
		Token:        "t",
		UserIdentity: domain.UserIdentity{ID: "u1", Role: role},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	f.d = NewDashboard(DashboardDeps{
		API:      f.shop,
		Session:  f.session,
		Notifier: f.notifier,
		Keyboard: f.kb,
		Runner:   Inline,
		Policy:   policy,
		Logger:   zerolog.Nop(),
	})
	return f
}

func TestMountLoadsLists(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	f.shop.products = []domain.Product{{ID: "p1", Name: "Mate"}}
	f.shop.orders = []domain.Order{{ID: "o1"}}

	if err := f.d.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if f.d.Products.Len() != 1 || f.d.Orders.Len() != 1 || !f.d.Bills.Loaded() {
		t.Errorf("unexpected state products=%d orders=%d bills loaded=%v",
			f.d.Products.Len(), f.d.Orders.Len(), f.d.Bills.Loaded())
	}
	if f.shop.count("GET /cart") != 0 {
		t.Error("cart must not be read on mount")
	}
}

func TestPayOrder(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	order := domain.Order{ID: "O", Price: decimal.NewFromInt(25)}
	f.shop.orders = nil
	f.shop.bills = []domain.Bill{{ID: "O", Price: order.Price, Method: domain.PaymentCash}}
	ctx := context.Background()

	f.d.SelectForPayment(order)
	f.d.PaymentDraft.Update(func(p *PaymentForm) { p.Method = string(domain.PaymentCash) })
	f.d.PayOrder(ctx)

	if f.shop.count("POST /payments/pay/O") != 1 {
		t.Fatalf("expected one pay request, got %v", f.shop.calls)
	}
	if f.shop.count("GET /orders") != 1 || f.shop.count("GET /bills/orders") != 1 {
		t.Errorf("expected orders and bills to be re-read, got %v", f.shop.calls)
	}
	msgs := f.notifier.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "O") || !strings.Contains(msgs[0], "25.00") {
		t.Errorf("unexpected toasts %v", msgs)
	}
	if f.notifier.sent[0].Duration != toastPayment {
		t.Errorf("expected payment toast duration, got %s", f.notifier.sent[0].Duration)
	}
	if f.d.PaymentModal.IsOpen() {
		t.Error("expected payment dialog to close")
	}
	if _, ok := f.d.Selected(); ok {
		t.Error("expected selection to be cleared")
	}
	if f.d.PaymentDraft.Value().Method != "" {
		t.Error("expected payment form to reset")
	}
	if f.d.Bills.Len() != 1 {
		t.Errorf("expected bill to show up, got %d", f.d.Bills.Len())
	}
}

func TestPayOrderWithoutMethodSendsNothing(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	f.d.SelectForPayment(domain.Order{ID: "O"})

	f.d.PayOrder(context.Background())

	if len(f.shop.calls) != 0 {
		t.Errorf("expected no requests, got %v", f.shop.calls)
	}
}

func TestEscapeClearsPaymentSelection(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	f.d.SelectForPayment(domain.Order{ID: "O"})

	f.kb.Press(KeyEscape)

	if _, ok := f.d.Selected(); ok {
		t.Error("expected selection to be cleared")
	}
	if f.kb.Listeners() != 0 {
		t.Errorf("expected no listeners, got %d", f.kb.Listeners())
	}
}

func TestAddToCartRereadsCart(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	p := domain.Product{ID: "P", Name: "Mate", Price: decimal.NewFromInt(10)}
	ctx := context.Background()

	f.d.AddToCart(ctx, p)
	f.shop.cart = []domain.CartLine{{ProductID: "P", Quantity: 2, Name: "Mate", Price: p.Price}}
	f.d.AddToCart(ctx, p)

	if f.shop.count("PUT /cart/add") != 2 || f.shop.count("GET /cart") != 2 {
		t.Errorf("unexpected calls %v", f.shop.calls)
	}
	items := f.d.Cart.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("unexpected cart %+v", items)
	}
	msgs := f.notifier.messages()
	if len(msgs) != 2 || msgs[0] != "Added one unit of Mate to the cart" {
		t.Errorf("unexpected toasts %v", msgs)
	}
}

func TestRemoveFromCartPatchesLocally(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	f.d.Cart.Replace([]domain.CartLine{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 2},
	})

	f.d.RemoveFromCart(context.Background(), "a")
	f.d.RemoveFromCart(context.Background(), "b")

	if f.shop.count("GET /cart") != 0 {
		t.Error("cart removal must not re-read the cart")
	}
	items := f.d.Cart.Items()
	if len(items) != 1 || items[0].ProductID != "b" || items[0].Quantity != 1 {
		t.Errorf("unexpected cart %+v", items)
	}
}

func TestConfirmCart(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	ctx := context.Background()

	f.d.ConfirmCart(ctx)
	if len(f.shop.calls) != 0 {
		t.Fatalf("empty cart must not create an order, got %v", f.shop.calls)
	}

	if err := f.d.OpenCart(ctx); err != nil {
		t.Fatalf("open cart: %v", err)
	}
	f.d.Cart.Replace([]domain.CartLine{{ProductID: "a", Quantity: 3, Price: decimal.RequireFromString("1.5")}})
	f.d.ConfirmCart(ctx)

	if f.shop.count("POST /orders/create") != 1 || f.shop.count("GET /orders") != 1 {
		t.Errorf("unexpected calls %v", f.shop.calls)
	}
	if msgs := f.notifier.messages(); len(msgs) != 1 || msgs[0] != "Confirmed an order of $4.50" {
		t.Errorf("unexpected toasts %v", msgs)
	}
	if f.d.CartModal.IsOpen() {
		t.Error("expected cart dialog to close")
	}
}

func TestWriteFailureLooksLikeSuccessByDefault(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	f.shop.writeErr = errBoom
	f.d.Cart.Replace([]domain.CartLine{{ProductID: "a", Quantity: 1}})

	f.d.RemoveFromCart(context.Background(), "a")
	if f.d.Cart.Len() != 0 {
		t.Errorf("expected local patch despite failure, got %+v", f.d.Cart.Items())
	}

	f.d.AddToCart(context.Background(), domain.Product{ID: "a", Name: "Mate"})
	if msgs := f.notifier.messages(); len(msgs) != 1 || msgs[0] != "Added one unit of Mate to the cart" {
		t.Errorf("unexpected toasts %v", msgs)
	}
	if f.shop.count("GET /cart") != 1 {
		t.Errorf("expected cart re-read after failed add, got %v", f.shop.calls)
	}
}

func TestWriteFailureReported(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{ReportFailures: true})
	f.shop.writeErr = errBoom
	f.d.Cart.Replace([]domain.CartLine{{ProductID: "a", Quantity: 1}})
	ctx := context.Background()

	f.d.RemoveFromCart(ctx, "a")
	f.d.SelectForPayment(domain.Order{ID: "O"})
	f.d.PaymentDraft.Update(func(p *PaymentForm) { p.Method = "EFECTIVO" })
	f.d.PayOrder(ctx)

	if f.d.Cart.Len() != 1 {
		t.Error("failed removal must not patch the cart")
	}
	for _, n := range f.notifier.sent {
		if n.Kind != domain.NotifyError {
			t.Errorf("unexpected non-error toast %q", n.Message)
		}
	}
	if len(f.notifier.sent) != 2 {
		t.Errorf("expected two error toasts, got %v", f.notifier.messages())
	}
	if f.shop.count("GET /orders") != 1 || f.shop.count("GET /bills/orders") != 1 {
		t.Errorf("expected refetch regardless of outcome, got %v", f.shop.calls)
	}
	if f.d.PaymentModal.IsOpen() {
		t.Error("expected payment dialog to close after settlement")
	}
}

func TestAdminOnlyActions(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	ctx := context.Background()

	if err := f.d.OpenProductForm(); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := f.d.DeleteProduct(ctx, "p1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := f.d.CreateProduct(ctx); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if len(f.shop.calls) != 0 {
		t.Errorf("expected no requests, got %v", f.shop.calls)
	}
}

func TestCreateProduct(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleAdmin, SettlementPolicy{})
	ctx := context.Background()

	if err := f.d.OpenProductForm(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.d.CreateProduct(ctx); err != nil {
		t.Fatalf("empty draft: %v", err)
	}
	if len(f.shop.calls) != 0 {
		t.Fatalf("incomplete draft must not be sent, got %v", f.shop.calls)
	}

	f.d.ProductDraft.Update(func(p *ProductForm) {
		*p = ProductForm{Name: "Mate", Description: "Calabaza", ImageURL: "http://img/1.png", Price: "12"}
	})
	if err := f.d.CreateProduct(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	if f.shop.count("POST /products") != 1 || f.shop.count("GET /products") != 1 {
		t.Errorf("unexpected calls %v", f.shop.calls)
	}
	if f.d.ProductModal.IsOpen() || f.d.ProductDraft.Value().Name != "" {
		t.Error("expected dialog closed and draft reset")
	}
	if msgs := f.notifier.messages(); len(msgs) != 1 || msgs[0] != "Product created" {
		t.Errorf("unexpected toasts %v", msgs)
	}
}

func TestDeleteProduct(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleAdmin, SettlementPolicy{})

	if err := f.d.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.shop.count("DELETE /products/p1") != 1 || f.shop.count("GET /products") != 1 {
		t.Errorf("unexpected calls %v", f.shop.calls)
	}
}

func TestOpenCartReadsBeforeReturning(t *testing.T) {
	f := newDashboardFixture(t, domain.RoleClient, SettlementPolicy{})
	// nothing scheduled on the runner ever runs
	f.d.runner = RunnerFunc(func(func()) {})
	f.d.Cart.Replace([]domain.CartLine{{ProductID: "stale", Quantity: 1}})
	f.shop.cart = []domain.CartLine{{ProductID: "fresh", Quantity: 2}}

	if err := f.d.OpenCart(context.Background()); err != nil {
		t.Fatalf("open cart: %v", err)
	}

	if !f.d.CartModal.IsOpen() {
		t.Error("expected cart dialog to be open")
	}
	items := f.d.Cart.Items()
	if len(items) != 1 || items[0].ProductID != "fresh" {
		t.Errorf("expected the cart read on open, got %+v", items)
	}
}

// gatedShop holds every cart add until release is closed.
type gatedShop struct {
	*mockShop
	release chan struct{}

	mu      sync.Mutex
	ctxErrs []error
}

func (g *gatedShop) AddToCart(ctx context.Context, productID string, quantity int) error {
	<-g.release
	g.mu.Lock()
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	g.mu.Unlock()
	return g.mockShop.AddToCart(ctx, productID, quantity)
}

func TestWritesDoNotBlockAndOutliveTheCaller(t *testing.T) {
	shop := &gatedShop{mockShop: &mockShop{}, release: make(chan struct{})}
	notifier := &mockNotifier{}
	session := NewSessionStore(&mockCredentials{}, &mockAuth{}, zerolog.Nop())
	if err := session.Login(context.Background(), domain.AuthPayload{Token: "t", UserIdentity: domain.UserIdentity{ID: "u1", Role: domain.RoleClient}}); err != nil {
		t.Fatalf("login: %v", err)
	}
	runner := NewAsyncRunner()
	d := NewDashboard(DashboardDeps{
		API:      shop,
		Session:  session,
		Notifier: notifier,
		Runner:   runner,
		Logger:   zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	p := domain.Product{ID: "p1", Name: "Mate"}
	returned := make(chan struct{})
	go func() {
		d.AddToCart(ctx, p)
		d.AddToCart(ctx, p)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		close(shop.release)
		t.Fatal("AddToCart waited for the request to settle")
	}

	cancel()
	if n := shop.count("PUT /cart/add"); n != 0 {
		t.Fatalf("expected both adds to be in flight, %d settled", n)
	}
	close(shop.release)
	runner.Wait()

	if n := shop.count("PUT /cart/add"); n != 2 {
		t.Errorf("expected two add requests, got %d", n)
	}
	if n := shop.count("GET /cart"); n != 2 {
		t.Errorf("expected a cart read after each add, got %d", n)
	}
	if msgs := notifier.messages(); len(msgs) != 2 {
		t.Errorf("expected two toasts, got %v", msgs)
	}
	shop.mu.Lock()
	defer shop.mu.Unlock()
	for _, err := range shop.ctxErrs {
		if err != nil {
			t.Errorf("in-flight write saw a cancelled context: %v", err)
		}
	}
}
