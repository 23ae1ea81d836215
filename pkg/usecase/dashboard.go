package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/domain"
	"golang.org/x/sync/errgroup"
)

const (
	toastDefault = 4 * time.Second
	toastCartAdd = 5 * time.Second
	toastPayment = 7 * time.Second
)

// SettlementPolicy decides how a failed write is reported. The zero value
// reports failures exactly like successes.
type SettlementPolicy struct {
	ReportFailures bool
}

// DashboardDeps are the collaborators of the authenticated screen.
type DashboardDeps struct {
	API      domain.ShopAPI
	Session  *SessionStore
	Notifier domain.Notifier
	Keyboard *Keyboard
	Runner   Runner
	Policy   SettlementPolicy
	Logger   zerolog.Logger
}

// Dashboard is the authenticated screen: catalog, orders, bills, cart and
// the three dialogs (cart, payment, product creation).
type Dashboard struct {
	api      domain.ShopAPI
	session  *SessionStore
	notifier domain.Notifier
	runner   Runner
	policy   SettlementPolicy
	log      zerolog.Logger

	Products *ListView[domain.Product]
	Orders   *ListView[domain.Order]
	Bills    *ListView[domain.Bill]
	Cart     *CartView

	CartModal    *Modal
	PaymentModal *Modal
	ProductModal *Modal

	ProductDraft *Draft[ProductForm]
	PaymentDraft *Draft[PaymentForm]

	selMu    sync.Mutex
	selected *domain.Order
}

func NewDashboard(deps DashboardDeps) *Dashboard {
	if deps.Runner == nil {
		deps.Runner = Inline
	}
	if deps.Keyboard == nil {
		deps.Keyboard = NewKeyboard()
	}
	d := &Dashboard{
		api:          deps.API,
		session:      deps.Session,
		notifier:     deps.Notifier,
		runner:       deps.Runner,
		policy:       deps.Policy,
		log:          deps.Logger.With().Str("pkg", "usecase").Str("component", "dashboard").Logger(),
		Products:     &ListView[domain.Product]{},
		Orders:       &ListView[domain.Order]{},
		Bills:        &ListView[domain.Bill]{},
		Cart:         &CartView{},
		ProductDraft: NewDraft(ProductForm{}),
		PaymentDraft: NewDraft(PaymentForm{}),
	}
	d.CartModal = NewModal(deps.Keyboard, ModalConfig{})
	d.PaymentModal = NewModal(deps.Keyboard, ModalConfig{OnClose: func() {
		d.setSelected(nil)
		d.PaymentDraft.Reset()
	}})
	d.ProductModal = NewModal(deps.Keyboard, ModalConfig{OnClose: d.ProductDraft.Reset})
	return d
}

// Mount loads products, orders and bills. The reads are independent: a
// failed one leaves its container untouched and does not stop the others.
func (d *Dashboard) Mount(ctx context.Context) error {
	var g errgroup.Group
	for _, r := range []Resource{ResourceProducts, ResourceOrders, ResourceBills} {
		r := r
		g.Go(func() error { return d.Refresh(ctx, r) })
	}
	return g.Wait()
}

// Refresh re-reads one resource and replaces its container.
func (d *Dashboard) Refresh(ctx context.Context, r Resource) error {
	var err error
	switch r {
	case ResourceProducts:
		var items []domain.Product
		if items, err = d.api.Products(ctx); err == nil {
			d.Products.Replace(items)
		}
	case ResourceOrders:
		var items []domain.Order
		if items, err = d.api.Orders(ctx); err == nil {
			d.Orders.Replace(items)
		}
	case ResourceBills:
		var items []domain.Bill
		if items, err = d.api.Bills(ctx); err == nil {
			d.Bills.Replace(items)
		}
	case ResourceCart:
		var items []domain.CartLine
		if items, err = d.api.Cart(ctx); err == nil {
			d.Cart.Replace(items)
		}
	default:
		return fmt.Errorf("unknown resource %d", r)
	}
	if err != nil {
		d.log.Warn().Err(err).Stringer("resource", r).Msg("read failed")
		return fmt.Errorf("read %s: %w", r, err)
	}
	return nil
}

// OpenCart shows the cart dialog and reads the cart before returning, so
// the dialog never lists lines from a previous visit.
func (d *Dashboard) OpenCart(ctx context.Context) error {
	d.CartModal.Open()
	return d.Refresh(ctx, ResourceCart)
}

// OpenProductForm shows the product creation dialog. Admin only.
func (d *Dashboard) OpenProductForm() error {
	if !d.session.IsAdmin() {
		return domain.ErrForbidden
	}
	d.ProductModal.Open()
	return nil
}

// SelectForPayment opens the payment dialog for order.
func (d *Dashboard) SelectForPayment(order domain.Order) {
	d.PaymentModal.Open()
	d.setSelected(&order)
}

// Selected returns the order being paid, if any.
func (d *Dashboard) Selected() (domain.Order, bool) {
	d.selMu.Lock()
	defer d.selMu.Unlock()
	if d.selected == nil {
		return domain.Order{}, false
	}
	return *d.selected, true
}

func (d *Dashboard) setSelected(o *domain.Order) {
	d.selMu.Lock()
	defer d.selMu.Unlock()
	d.selected = o
}

// AddToCart adds one unit of p.
func (d *Dashboard) AddToCart(ctx context.Context, p domain.Product) {
	d.write(ctx, MutationCartAdd, func(ctx context.Context) error {
		return d.api.AddToCart(ctx, p.ID, 1)
	}, func(ctx context.Context) {
		d.toast(ctx, domain.NotifyInfo, fmt.Sprintf("Added one unit of %s to the cart", p.Name), toastCartAdd)
	})
}

// RemoveFromCart removes one unit of productID.
func (d *Dashboard) RemoveFromCart(ctx context.Context, productID string) {
	d.write(ctx, MutationCartRemove, func(ctx context.Context) error {
		return d.api.RemoveFromCart(ctx, productID, 1)
	}, func(context.Context) {
		d.Cart.RemoveOne(productID)
	})
}

// ConfirmCart turns the cart into an order. An empty cart is ignored.
func (d *Dashboard) ConfirmCart(ctx context.Context) {
	if d.Cart.Len() == 0 {
		return
	}
	total := d.Cart.Total()
	d.write(ctx, MutationOrderCreate, d.api.CreateOrder, func(ctx context.Context) {
		d.toast(ctx, domain.NotifySuccess, fmt.Sprintf("Confirmed an order of $%s", total), toastDefault)
		d.CartModal.Close()
	})
}

// PayOrder pays the selected order with the method held by the payment draft.
// Without a selected order or a valid method nothing is sent.
func (d *Dashboard) PayOrder(ctx context.Context) {
	order, ok := d.Selected()
	if !ok {
		return
	}
	method, ok := d.PaymentDraft.Value().PaymentMethod()
	if !ok {
		return
	}
	d.write(ctx, MutationOrderPay, func(ctx context.Context) error {
		return d.api.PayOrder(ctx, order.ID, method)
	}, func(ctx context.Context) {
		msg := fmt.Sprintf("Paid order %s ($%s) with %s", order.ID, order.Price.StringFixed(2), method)
		d.toast(ctx, domain.NotifySuccess, msg, toastPayment)
		d.PaymentModal.Close()
	})
}

// CreateProduct submits the product draft. Admin only; incomplete drafts are ignored.
func (d *Dashboard) CreateProduct(ctx context.Context) error {
	if !d.session.IsAdmin() {
		return domain.ErrForbidden
	}
	np, ok := d.ProductDraft.Value().Product()
	if !ok {
		return nil
	}
	d.write(ctx, MutationProductCreate, func(ctx context.Context) error {
		return d.api.CreateProduct(ctx, np)
	}, func(ctx context.Context) {
		d.ProductDraft.Reset()
		d.ProductModal.Close()
		d.toast(ctx, domain.NotifySuccess, "Product created", toastDefault)
	})
	return nil
}

// DeleteProduct removes a product from the catalog. Admin only.
func (d *Dashboard) DeleteProduct(ctx context.Context, id string) error {
	if !d.session.IsAdmin() {
		return domain.ErrForbidden
	}
	d.write(ctx, MutationProductDelete, func(ctx context.Context) error {
		return d.api.DeleteProduct(ctx, id)
	}, func(ctx context.Context) {
		d.toast(ctx, domain.NotifySuccess, "Product deleted", toastDefault)
	})
	return nil
}

// write issues a mutation without blocking the caller. On settlement,
// success or failure alike, it applies ReconcileAfter(kind) and then the
// caller's effects. In-flight writes are never cancelled.
func (d *Dashboard) write(ctx context.Context, kind MutationKind, do func(context.Context) error, effects func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	d.runner.Go(func() {
		err := do(ctx)
		if err != nil {
			d.log.Warn().Err(err).Stringer("mutation", kind).Msg("write failed")
		}

		plan := ReconcileAfter(kind)
		for _, r := range plan.Refetch {
			r := r
			d.runner.Go(func() { _ = d.Refresh(ctx, r) })
		}

		if err != nil && d.policy.ReportFailures {
			d.toast(ctx, domain.NotifyError, fmt.Sprintf("Could not complete %s: %v", kind, err), toastDefault)
			if kind == MutationCartRemove {
				return
			}
			effects(withFailure(ctx))
			return
		}
		effects(ctx)
	})
}

type failureKey struct{}

// withFailure marks ctx so effects skip their success toast once a failure
// toast has already been shown.
func withFailure(ctx context.Context) context.Context {
	return context.WithValue(ctx, failureKey{}, true)
}

func (d *Dashboard) toast(ctx context.Context, kind domain.NotificationKind, msg string, dur time.Duration) {
	if failed, _ := ctx.Value(failureKey{}).(bool); failed && kind != domain.NotifyError {
		return
	}
	n := domain.Notification{
		ID:       uuid.NewString(),
		Kind:     kind,
		Message:  msg,
		Duration: dur,
		At:       time.Now(),
	}
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.log.Warn().Err(err).Str("notification", n.ID).Msg("notify failed")
	}
}
