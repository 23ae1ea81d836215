package usecase

import "sync"

// Key is a key name as reported by the terminal.
type Key string

const KeyEscape Key = "Escape"

// Keyboard is the process-wide key listener registry.
type Keyboard struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(Key)
}

func NewKeyboard() *Keyboard {
	return &Keyboard{listeners: make(map[int]func(Key))}
}

// Subscribe attaches fn and returns the function that detaches it.
func (k *Keyboard) Subscribe(fn func(Key)) (unsubscribe func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.next
	k.next++
	k.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()
			delete(k.listeners, id)
		})
	}
}

// Press delivers key to every attached listener.
func (k *Keyboard) Press(key Key) {
	k.mu.Lock()
	fns := make([]func(Key), 0, len(k.listeners))
	for _, fn := range k.listeners {
		fns = append(fns, fn)
	}
	k.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Listeners returns the number of attached listeners.
func (k *Keyboard) Listeners() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.listeners)
}

// ClickTarget is where a click inside an open dialog landed.
type ClickTarget int

const (
	ClickBackground ClickTarget = iota
	ClickContent
)

// ModalConfig configures a Modal. OnClose runs on every closing path.
type ModalConfig struct {
	DefaultOpen bool
	OnClose     func()
}

// Modal is the closed -> open -> closed dialog state machine.
// While open it listens for Escape on the shared keyboard.
type Modal struct {
	kb  *Keyboard
	cfg ModalConfig

	mu          sync.Mutex
	open        bool
	unsubscribe func()
}

func NewModal(kb *Keyboard, cfg ModalConfig) *Modal {
	m := &Modal{kb: kb, cfg: cfg}
	if cfg.DefaultOpen {
		m.Open()
	}
	return m
}

func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Modal) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		return
	}
	m.open = true
	m.unsubscribe = m.kb.Subscribe(m.onKey)
}

// Close hides the dialog, detaches its key listener and runs OnClose.
// Closing a closed dialog does nothing.
func (m *Modal) Close() {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return
	}
	m.open = false
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if m.cfg.OnClose != nil {
		m.cfg.OnClose()
	}
}

// Click closes the dialog when the background (outside its content) is clicked.
func (m *Modal) Click(target ClickTarget) {
	if target == ClickBackground {
		m.Close()
	}
}

func (m *Modal) onKey(k Key) {
	if k == KeyEscape {
		m.Close()
	}
}
