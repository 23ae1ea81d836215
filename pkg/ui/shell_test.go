package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sokoide/shopfront/pkg/domain"
	"github.com/sokoide/shopfront/pkg/infra/api"
	"github.com/sokoide/shopfront/pkg/infra/apitest"
	"github.com/sokoide/shopfront/pkg/infra/notify"
	"github.com/sokoide/shopfront/pkg/infra/storage"
	"github.com/sokoide/shopfront/pkg/usecase"
)

type harness struct {
	fake    *apitest.Server
	session *usecase.SessionStore
	kb      *usecase.Keyboard
	out     *bytes.Buffer
	creds   *storage.MemoryCredentialStore
	client  *api.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := apitest.NewServer()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	creds := storage.NewMemoryCredentialStore()
	client, err := api.New(srv.URL, creds)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{
		fake:    fake,
		session: usecase.NewSessionStore(creds, client, zerolog.Nop()),
		kb:      usecase.NewKeyboard(),
		out:     &bytes.Buffer{},
		creds:   creds,
		client:  client,
	}
}

func (h *harness) run(t *testing.T, script string) string {
	t.Helper()
	h.out.Reset()
	if err := h.shell(strings.NewReader(script)).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return h.out.String()
}

func (h *harness) shell(in io.Reader) *Shell {
	return NewShell(Deps{
		In:       in,
		Out:      h.out,
		Session:  h.session,
		Keyboard: h.kb,
		NewDashboard: func() *usecase.Dashboard {
			return usecase.NewDashboard(usecase.DashboardDeps{
				API:      h.client,
				Session:  h.session,
				Notifier: notify.NewConsoleNotifier(h.out),
				Keyboard: h.kb,
				Runner:   usecase.Inline,
				Logger:   zerolog.Nop(),
			})
		},
		Logger: zerolog.Nop(),
	})
}

func (h *harness) seed(t *testing.T, role domain.Role) {
	t.Helper()
	_, err := h.fake.SeedUser(domain.Registration{Email: "u@shop.test", Password: "secret", Role: role})
	if err != nil {
		t.Fatal(err)
	}
	h.fake.SeedProduct(domain.NewProduct{
		Name: "Mate", Description: "Calabaza", Media: []string{"http://img/mate.png"}, Price: decimal.RequireFromString("12.50"),
	})
	h.session.ValidateOnStart(context.Background())
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("expected output to contain %q\n--- output ---\n%s", w, out)
		}
	}
}

func TestShoppingFlow(t *testing.T) {
	h := newHarness(t)
	h.seed(t, domain.RoleAdmin)

	out := h.run(t, strings.Join([]string{
		"login u@shop.test secret",
		"add 1",
		"add 1",
		"cart",
		"show",
		"remove 1",
		"show",
		"confirm",
		"orders",
		"pay 1",
		"method efectivo",
		"submit",
		"bills",
		"quit",
	}, "\n"))

	assertContains(t, out,
		"Welcome to the shop.",
		"Signed in as",
		"[delete]",
		"Added one unit of Mate to the cart",
		"Mate  2x",
		"Mate  1x",
		"Confirmed an order of $12.50",
		"Orders (1)",
		"Paid order",
		"($12.50) with EFECTIVO",
		"Bills (1)",
	)
	if h.kb.Listeners() != 0 {
		t.Errorf("expected no key listeners left, got %d", h.kb.Listeners())
	}
}

func TestAdminCreatesProduct(t *testing.T) {
	h := newHarness(t)
	h.seed(t, domain.RoleAdmin)

	out := h.run(t, strings.Join([]string{
		"login u@shop.test secret",
		"new-product",
		"set name Yerba",
		"set description Un kilo",
		"set image http://img/yerba.png",
		"set price 5",
		"save",
		"products",
		"quit",
	}, "\n"))

	assertContains(t, out, "New product", "Product created", "Products (2)", "Yerba")
}

func TestClientSeesNoAdminAffordances(t *testing.T) {
	h := newHarness(t)
	h.seed(t, domain.RoleClient)

	out := h.run(t, "login u@shop.test secret\nhelp\ndelete 1\nnew-product\nquit\n")

	if strings.Contains(out, "[delete]") || strings.Contains(out, "new-product") {
		t.Errorf("client must not see admin actions\n%s", out)
	}
	assertContains(t, out, "Only administrators can do that.")
}

func TestEscapeClosesCart(t *testing.T) {
	h := newHarness(t)
	h.seed(t, domain.RoleClient)

	out := h.run(t, "login u@shop.test secret\ncart\nesc\ncart\noutside\nquit\n")

	assertContains(t, out, "Your cart is empty.")
	if h.kb.Listeners() != 0 {
		t.Errorf("expected no key listeners left, got %d", h.kb.Listeners())
	}
}

func TestSessionSurvivesRestartUntilLogout(t *testing.T) {
	h := newHarness(t)
	h.seed(t, domain.RoleClient)

	h.run(t, "login u@shop.test secret\nquit\n")
	if _, err := h.creds.Load(context.Background()); err != nil {
		t.Fatalf("expected persisted credential, got %v", err)
	}

	// a new process validates the stored credential
	h.session = usecase.NewSessionStore(h.creds, h.client, zerolog.Nop())
	h.session.ValidateOnStart(context.Background())
	out := h.run(t, "logout\nquit\n")

	assertContains(t, out, "Signed in as", "Welcome to the shop.")
	if h.session.Status() != domain.StatusNotAuthenticated {
		t.Errorf("expected not_authenticated, got %s", h.session.Status())
	}
	if _, err := h.creds.Load(context.Background()); err == nil {
		t.Error("expected credential to be removed")
	}
}

func TestBadLoginStaysOnWelcome(t *testing.T) {
	h := newHarness(t)
	h.seed(t, domain.RoleClient)

	out := h.run(t, "login u@shop.test wrong\nquit\n")

	assertContains(t, out, "Login failed")
	if h.session.Status() != domain.StatusNotAuthenticated {
		t.Errorf("expected not_authenticated, got %s", h.session.Status())
	}
}

func TestRegisterPrompts(t *testing.T) {
	h := newHarness(t)
	h.session.ValidateOnStart(context.Background())

	out := h.run(t, strings.Join([]string{
		"register",
		"Ana", "Diaz", "Calle 1", "30111222", "ana@shop.test", "pw",
		"2",
		"3",
		"quit",
	}, "\n"))

	assertContains(t, out, "Signed in as", "(client)")
}

func TestRunStopsOnCancelWhileWaitingForInput(t *testing.T) {
	h := newHarness(t)
	h.session.ValidateOnStart(context.Background())
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	sh := h.shell(r)
	go func() { done <- sh.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept waiting for input after cancel")
	}
}
