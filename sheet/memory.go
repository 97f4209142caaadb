package sheet

// Memory is an in-memory sheet usable as both Source and Sink.
type Memory struct {
	header []string
	rows   [][]string
	pos    int
}

// NewMemory returns a sheet holding header and rows.
func NewMemory(header []string, rows ...[]string) *Memory {
	return &Memory{header: header, rows: rows, pos: -1}
}

func (m *Memory) Header() ([]string, error) {
	if m.header == nil {
		return nil, ErrNoHeader
	}
	return m.header, nil
}

func (m *Memory) Next() bool {
	if m.pos+1 >= len(m.rows) {
		return false
	}
	m.pos++
	return true
}

func (m *Memory) Row() []string {
	if m.pos < 0 || m.pos >= len(m.rows) {
		return nil
	}
	return m.rows[m.pos]
}

func (m *Memory) Err() error {
	return nil
}

// Close rewinds the sheet so it can be read again.
func (m *Memory) Close() error {
	m.pos = -1
	return nil
}

func (m *Memory) WriteHeader(header []string) error {
	m.header = append([]string(nil), header...)
	return nil
}

func (m *Memory) AppendRow(cells []string) error {
	m.rows = append(m.rows, append([]string(nil), cells...))
	return nil
}

// Rows returns the data rows written so far.
func (m *Memory) Rows() [][]string {
	return m.rows
}

// HeaderRow returns the header without consuming it.
func (m *Memory) HeaderRow() []string {
	return m.header
}
