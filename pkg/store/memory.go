package store

// Memory is the default StateStore: a plain slice.
type Memory struct {
	msgs   []string
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{msgs: make([]string, 0, 16)}
}

func (m *Memory) Create(payload string) error {
	if m.closed {
		return ErrClosed
	}
	m.msgs = append(m.msgs, payload)
	return nil
}

func (m *Memory) List() ([]string, error) {
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]string, len(m.msgs))
	copy(out, m.msgs)
	return out, nil
}

func (m *Memory) Close() error {
	m.closed = true
	m.msgs = nil
	return nil
}
