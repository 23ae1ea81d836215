package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sokoide/shopfront/pkg/domain"
	"github.com/sokoide/shopfront/pkg/usecase"
)

const dateLayout = "02/01/2006 15:04"

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func methodList() string {
	names := make([]string, len(domain.PaymentMethods))
	for i, m := range domain.PaymentMethods {
		names[i] = string(m)
	}
	return strings.Join(names, "|")
}

func (s *Shell) renderGuest() {
	fmt.Fprintln(s.out, "Welcome to the shop.")
	fmt.Fprintln(s.out, "  login <email> <password>")
	fmt.Fprintln(s.out, "  register")
	fmt.Fprintln(s.out, "  quit")
}

func (s *Shell) renderHelp() {
	if s.dash == nil {
		s.renderGuest()
		return
	}
	fmt.Fprintln(s.out, "  products | orders | bills | refresh")
	fmt.Fprintln(s.out, "  add <n>          add one unit of product n to the cart")
	fmt.Fprintln(s.out, "  cart             open the cart")
	fmt.Fprintln(s.out, "  pay <n>          pay order n")
	if s.session.IsAdmin() {
		fmt.Fprintln(s.out, "  new-product      create a product")
		fmt.Fprintln(s.out, "  delete <n>       delete product n")
	}
	fmt.Fprintln(s.out, "  logout | quit")
}

func (s *Shell) renderDashboard() {
	id := s.session.Identity()
	fmt.Fprintf(s.out, "Signed in as %s (%s)\n", id.ID, id.Role)
	s.renderProducts()
	s.renderOrders()
	s.renderBills()
}

func (s *Shell) renderProducts() {
	items := s.dash.Products.Items()
	fmt.Fprintf(s.out, "Products (%d)\n", len(items))
	admin := s.session.IsAdmin()
	for i, p := range items {
		actions := "[add]"
		if admin {
			actions += " [delete]"
		}
		fmt.Fprintf(s.out, "  %d. %s  %s  %s  %s\n", i+1, p.Name, money(p.Price), p.Description, actions)
	}
}

func (s *Shell) renderOrders() {
	items := s.dash.Orders.Items()
	fmt.Fprintf(s.out, "Orders (%d)\n", len(items))
	for i, o := range items {
		fmt.Fprintf(s.out, "  %d. Order %s  %s  %d products  %s  [pay]\n",
			i+1, o.ID, money(o.Price), domain.ItemCount(o.Products), date(o.CreatedAt))
	}
}

func (s *Shell) renderBills() {
	items := s.dash.Bills.Items()
	fmt.Fprintf(s.out, "Bills (%d)\n", len(items))
	for i, b := range items {
		fmt.Fprintf(s.out, "  %d. Bill %s  %s  %d products  %s  %s\n",
			i+1, b.ID, money(b.Price), domain.ItemCount(b.Products), b.Method, date(b.BilledAt))
	}
}

func (s *Shell) renderCartDialog() {
	cart := s.dash.Cart
	if !cart.Loaded() {
		fmt.Fprintln(s.out, "Loading cart... (show to refresh)")
		return
	}
	lines := cart.Items()
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "Your cart is empty.")
		return
	}
	fmt.Fprintln(s.out, "Cart")
	for i, l := range lines {
		fmt.Fprintf(s.out, "  %d. %s  %dx  %s  [remove]\n", i+1, l.Name, l.Quantity, money(l.Price))
	}
	fmt.Fprintf(s.out, "Total: $%s  [confirm]\n", cart.Total())
}

func (s *Shell) renderPaymentDialog() {
	o, ok := s.dash.Selected()
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "Pay order %s (%s)\n", o.ID, money(o.Price))
	fmt.Fprintf(s.out, "  method <%s>, then submit\n", methodList())
}

func (s *Shell) renderProductDialog() {
	f := s.dash.ProductDraft.Value()
	fmt.Fprintln(s.out, "New product")
	fmt.Fprintf(s.out, "  name:        %s\n", f.Name)
	fmt.Fprintf(s.out, "  description: %s\n", f.Description)
	fmt.Fprintf(s.out, "  image:       %s\n", f.ImageURL)
	fmt.Fprintf(s.out, "  price:       %s\n", f.Price)
	fmt.Fprintln(s.out, "  set <field> <value>, then save")
}

// prompt asks for one line. ok is false at end of input or once ctx is done.
func (s *Shell) prompt(ctx context.Context, label, def string) (string, bool) {
	if def != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	line, err := s.readLine(ctx)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(line)
	if v == "" {
		v = def
	}
	return v, true
}

func (s *Shell) promptRegister(ctx context.Context) (usecase.RegisterForm, bool) {
	f := usecase.NewRegisterForm()
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &f.Name},
		{"Last name", &f.LastName},
		{"Address", &f.Address},
		{"DNI", &f.DNI},
		{"Email", &f.Email},
		{"Password", &f.Password},
		{"Role (1 admin, 2 client)", &f.Role},
	}
	for _, field := range fields {
		v, ok := s.prompt(ctx, field.label, *field.dst)
		if !ok {
			return f, false
		}
		*field.dst = v
	}

	for i, c := range domain.IVAConditions {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, c)
	}
	v, ok := s.prompt(ctx, "IVA condition", "1")
	if !ok {
		return f, false
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(domain.IVAConditions) {
		f.IVACondition = domain.IVAConditions[n-1]
	}
	return f, true
}
