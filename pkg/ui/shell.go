// Package ui is the line-oriented terminal front end. Screens are printed
// views and dialogs are modes in which a reduced set of commands applies.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/domain"
	"github.com/sokoide/shopfront/pkg/usecase"
)

type Deps struct {
	In       io.Reader
	Out      io.Writer
	Session  *usecase.SessionStore
	Keyboard *usecase.Keyboard
	// NewDashboard builds the authenticated screen. It must share Keyboard.
	NewDashboard func() *usecase.Dashboard
	Logger       zerolog.Logger
}

type Shell struct {
	in           io.Reader
	lines        <-chan string
	readErr      error
	out          io.Writer
	session      *usecase.SessionStore
	kb           *usecase.Keyboard
	newDashboard func() *usecase.Dashboard
	log          zerolog.Logger

	dash *usecase.Dashboard
}

func NewShell(d Deps) *Shell {
	s := &Shell{
		in:           d.In,
		out:          d.Out,
		session:      d.Session,
		kb:           d.Keyboard,
		newDashboard: d.NewDashboard,
		log:          d.Logger.With().Str("pkg", "ui").Logger(),
	}
	s.session.Subscribe(func(st domain.SessionStatus) {
		s.log.Debug().Str("status", string(st)).Msg("session changed")
	})
	return s
}

// Run reads commands until quit, end of input or ctx is done. Input is read
// on its own goroutine so a cancelled ctx ends Run at an idle prompt.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	s.lines = lines
	go s.readLines(lines, done)

	s.render(ctx)
	for {
		fmt.Fprint(s.out, s.promptLabel())
		line, err := s.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := s.Exec(ctx, line); quit {
			return nil
		}
	}
}

// readLines feeds lines until end of input or until Run returns.
// readErr is set before lines is closed.
func (s *Shell) readLines(lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	sc := bufio.NewScanner(s.in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-done:
			return
		}
	}
	s.readErr = sc.Err()
}

// readLine returns the next input line, io.EOF at end of input, or ctx.Err().
func (s *Shell) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.lines == nil {
		return "", io.EOF
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			if s.readErr != nil {
				return "", s.readErr
			}
			return "", io.EOF
		}
		return line, nil
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit":
		if s.dash != nil {
			s.closeDialogs()
		}
		return true
	case "help":
		s.renderHelp()
		return false
	}

	switch s.session.Status() {
	case domain.StatusChecking:
		fmt.Fprintln(s.out, "Checking your session, please wait.")
	case domain.StatusNotAuthenticated:
		s.execGuest(ctx, cmd, args)
	case domain.StatusAuthenticated:
		if s.dash == nil {
			s.enterDashboard(ctx)
		}
		if d := s.openDialog(); d != noDialog {
			s.execDialog(ctx, d, cmd, args)
			return false
		}
		s.execDashboard(ctx, cmd, args)
	}
	return false
}

func (s *Shell) promptLabel() string {
	if s.dash != nil {
		switch s.openDialog() {
		case cartDialog:
			return "cart> "
		case paymentDialog:
			return "pay> "
		case productDialog:
			return "new product> "
		}
	}
	return "> "
}

func (s *Shell) render(ctx context.Context) {
	switch s.session.Status() {
	case domain.StatusChecking:
		fmt.Fprintln(s.out, "Checking your session...")
	case domain.StatusNotAuthenticated:
		s.renderGuest()
	case domain.StatusAuthenticated:
		if s.dash == nil {
			s.enterDashboard(ctx)
			return
		}
		s.renderDashboard()
	}
}

func (s *Shell) execGuest(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "login":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: login <email> <password>")
			return
		}
		if err := s.session.SubmitLogin(ctx, usecase.LoginForm{Email: args[0], Password: args[1]}); err != nil {
			s.reportError("Login failed", err)
			return
		}
	case "register":
		form, ok := s.promptRegister(ctx)
		if !ok {
			return
		}
		if err := s.session.SubmitRegister(ctx, form); err != nil {
			s.reportError("Registration failed", err)
			return
		}
	default:
		s.renderGuest()
		return
	}
	if s.session.Status() == domain.StatusAuthenticated {
		s.enterDashboard(ctx)
	}
}

func (s *Shell) enterDashboard(ctx context.Context) {
	s.dash = s.newDashboard()
	if err := s.dash.Mount(ctx); err != nil {
		s.log.Warn().Err(err).Msg("mount")
	}
	s.renderDashboard()
}

func (s *Shell) leaveDashboard() {
	s.closeDialogs()
	s.dash = nil
}

func (s *Shell) closeDialogs() {
	s.dash.ProductModal.Close()
	s.dash.PaymentModal.Close()
	s.dash.CartModal.Close()
}

func (s *Shell) execDashboard(ctx context.Context, cmd string, args []string) {
	d := s.dash
	switch cmd {
	case "products":
		s.renderProducts()
	case "orders":
		s.renderOrders()
	case "bills":
		s.renderBills()
	case "refresh":
		if err := d.Mount(ctx); err != nil {
			s.reportError("Could not refresh", err)
		}
		s.renderDashboard()
	case "add":
		if p, ok := pick(s, d.Products.Items(), args); ok {
			d.AddToCart(ctx, p)
		}
	case "delete":
		if p, ok := pick(s, d.Products.Items(), args); ok {
			s.reportError("", d.DeleteProduct(ctx, p.ID))
		}
	case "new-product":
		if err := d.OpenProductForm(); err != nil {
			s.reportError("", err)
			return
		}
		s.renderProductDialog()
	case "cart":
		if err := d.OpenCart(ctx); err != nil {
			s.reportError("Could not load the cart", err)
		}
		s.renderCartDialog()
	case "pay":
		if o, ok := pick(s, d.Orders.Items(), args); ok {
			d.SelectForPayment(o)
			s.renderPaymentDialog()
		}
	case "logout":
		s.leaveDashboard()
		s.session.Logout(ctx)
		s.renderGuest()
	default:
		s.renderDashboard()
	}
}

type dialog int

const (
	noDialog dialog = iota
	cartDialog
	paymentDialog
	productDialog
)

func (s *Shell) openDialog() dialog {
	switch {
	case s.dash.ProductModal.IsOpen():
		return productDialog
	case s.dash.PaymentModal.IsOpen():
		return paymentDialog
	case s.dash.CartModal.IsOpen():
		return cartDialog
	default:
		return noDialog
	}
}

func (s *Shell) modal(d dialog) *usecase.Modal {
	switch d {
	case productDialog:
		return s.dash.ProductModal
	case paymentDialog:
		return s.dash.PaymentModal
	default:
		return s.dash.CartModal
	}
}

func (s *Shell) execDialog(ctx context.Context, d dialog, cmd string, args []string) {
	switch cmd {
	case "esc":
		s.kb.Press(usecase.KeyEscape)
		s.renderDashboard()
		return
	case "outside":
		s.modal(d).Click(usecase.ClickBackground)
		s.renderDashboard()
		return
	case "inside":
		s.modal(d).Click(usecase.ClickContent)
		return
	case "close":
		s.modal(d).Close()
		s.renderDashboard()
		return
	}

	switch d {
	case cartDialog:
		s.execCart(ctx, cmd, args)
	case paymentDialog:
		s.execPayment(ctx, cmd, args)
	case productDialog:
		s.execProduct(ctx, cmd, args)
	}
}

func (s *Shell) execCart(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "remove":
		if l, ok := pick(s, s.dash.Cart.Items(), args); ok {
			s.dash.RemoveFromCart(ctx, l.ProductID)
		}
	case "confirm":
		s.dash.ConfirmCart(ctx)
	case "show":
		s.renderCartDialog()
	default:
		fmt.Fprintln(s.out, "cart: show | remove <n> | confirm | close | esc | outside")
	}
}

func (s *Shell) execPayment(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "method":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: method <"+methodList()+">")
			return
		}
		s.dash.PaymentDraft.Update(func(f *usecase.PaymentForm) { f.Method = args[0] })
	case "submit":
		s.dash.PayOrder(ctx)
	default:
		fmt.Fprintln(s.out, "pay: method <name> | submit | close | esc | outside")
	}
}

func (s *Shell) execProduct(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "set":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "usage: set <name|description|image|price> <value>")
			return
		}
		value := strings.Join(args[1:], " ")
		known := true
		s.dash.ProductDraft.Update(func(f *usecase.ProductForm) {
			switch strings.ToLower(args[0]) {
			case "name":
				f.Name = value
			case "description":
				f.Description = value
			case "image":
				f.ImageURL = value
			case "price":
				f.Price = value
			default:
				known = false
			}
		})
		if !known {
			fmt.Fprintf(s.out, "unknown field %q\n", args[0])
		}
	case "save":
		s.reportError("", s.dash.CreateProduct(ctx))
	case "show":
		s.renderProductDialog()
	default:
		fmt.Fprintln(s.out, "new product: set <field> <value> | show | save | close | esc | outside")
	}
}

// pick resolves a 1-based index argument against items.
func pick[T any](s *Shell, items []T, args []string) (T, bool) {
	var zero T
	if len(args) != 1 {
		fmt.Fprintln(s.out, "expected one item number")
		return zero, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(items) {
		fmt.Fprintf(s.out, "no item %s\n", args[0])
		return zero, false
	}
	return items[n-1], true
}

func (s *Shell) reportError(prefix string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrForbidden) {
		fmt.Fprintln(s.out, "Only administrators can do that.")
		return
	}
	if prefix == "" {
		prefix = "Error"
	}
	fmt.Fprintf(s.out, "%s: %v\n", prefix, err)
}
