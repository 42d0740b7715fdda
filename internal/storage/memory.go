package storage

// Memory is an in-process Blob used by tests and ephemeral sessions.
type Memory struct {
	opts     Options
	values   map[string]string
	writeErr error
	SetCalls int
}

func NewMemory(opts Options) *Memory {
	return &Memory{opts: opts, values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.SetCalls++
	if m.writeErr != nil {
		return m.writeErr
	}
	if err := checkQuota(m.opts, value); err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

// Put stores value directly, bypassing quota and injected failures.
func (m *Memory) Put(key, value string) {
	m.values[key] = value
}

// FailWrites makes every following Set return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.writeErr = err
}
