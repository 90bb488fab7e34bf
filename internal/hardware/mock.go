package hardware

import (
	"context"
	"fmt"
	"sync"
)

// MockTx is one bus transaction recorded by Mock.
type MockTx struct {
	Op   string // "read" or "write"
	Reg  Register
	Data []byte // bytes written, or bytes returned by a read
}

// Mock is an in-memory simulation of the IO expansion board and the bus
// it sits on. It implements both Transport and Conn and records every
// register transaction for inspection by tests.
type Mock struct {
	mu        sync.Mutex
	regs      map[Register]byte
	log       []MockTx
	devAddr   uint16
	addr      uint16
	bound     bool
	open      bool
	failOpen  bool
	failBind  bool
	failRead  bool
	failWrite bool
	failClose bool
}

// NewMock returns a board at DefaultAddr reporting the expected identity.
func NewMock() *Mock {
	return NewMockAt(DefaultAddr)
}

// NewMockAt returns a board answering at the given address.
func NewMockAt(addr uint16) *Mock {
	m := &Mock{
		regs:    make(map[Register]byte),
		devAddr: addr,
	}
	m.regs[RegSlaveAddr] = byte(addr)
	m.regs[RegPID] = ExpectedPID
	m.regs[RegVID] = ExpectedVID
	return m
}

// SetFailOpen configures the mock to fail Open.
func (m *Mock) SetFailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = fail
}

// SetFailBind configures the mock to fail Bind.
func (m *Mock) SetFailBind(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failBind = fail
}

// SetFailWrite configures the mock to fail all write operations.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// SetFailRead configures the mock to fail all read operations.
func (m *Mock) SetFailRead(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = fail
}

// SetFailClose configures the mock to fail Close.
func (m *Mock) SetFailClose(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failClose = fail
}

// SetReg stores data at reg and the registers following it.
func (m *Mock) SetReg(reg Register, data ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range data {
		m.regs[reg+Register(i)] = b
	}
}

// GetReg returns a register value for testing purposes.
func (m *Mock) GetReg(reg Register) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[reg]
}

// Block returns n register values starting at reg.
func (m *Mock) Block(reg Register, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.block(reg, n)
}

// Transactions returns a copy of the transaction log.
func (m *Mock) Transactions() []MockTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockTx, len(m.log))
	copy(out, m.log)
	return out
}

// Writes returns only the write transactions from the log.
func (m *Mock) Writes() []MockTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockTx
	for _, tx := range m.log {
		if tx.Op == "write" {
			out = append(out, tx)
		}
	}
	return out
}

// ClearLog discards all recorded transactions.
func (m *Mock) ClearLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}

// IsOpen reports whether a handle is currently open.
func (m *Mock) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Mock) Open(bus int) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOpen {
		return nil, ErrHardware(fmt.Sprintf("mock: open bus %d failure configured", bus))
	}
	m.open = true
	m.bound = false
	return m, nil
}

func (m *Mock) Bind(addr uint16, tenBit bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBind {
		return ErrHardware("mock: bind failure configured")
	}
	m.addr = addr
	m.bound = true
	return nil
}

func (m *Mock) ReadByteData(ctx context.Context, reg Register) (byte, error) {
	b, err := m.ReadBlockData(ctx, reg, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Mock) ReadBlockData(ctx context.Context, reg Register, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return nil, err
	}
	if m.failRead {
		return nil, ErrHardware("mock: read failure configured")
	}
	data := m.block(reg, n)
	m.log = append(m.log, MockTx{Op: "read", Reg: reg, Data: append([]byte(nil), data...)})
	return data, nil
}

func (m *Mock) WriteBlockData(ctx context.Context, reg Register, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if m.failWrite {
		return ErrHardware("mock: write failure configured")
	}
	for i, b := range data {
		m.regs[reg+Register(i)] = b
	}
	m.log = append(m.log, MockTx{Op: "write", Reg: reg, Data: append([]byte(nil), data...)})
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	m.bound = false
	if m.failClose {
		return ErrHardware("mock: close failure configured")
	}
	return nil
}

func (m *Mock) ready() error {
	if !m.open {
		return ErrHardware("mock: bus not open")
	}
	if !m.bound || m.addr != m.devAddr {
		return ErrHardware(fmt.Sprintf("mock: no ACK from 0x%02x", m.addr))
	}
	return nil
}

func (m *Mock) block(reg Register, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = m.regs[reg+Register(i)]
	}
	return out
}

// HardwareError is returned when a simulated bus operation fails.
type HardwareError struct {
	msg string
}

func (e HardwareError) Error() string { return e.msg }

// ErrHardware creates a new hardware error.
func ErrHardware(msg string) error { return HardwareError{msg: msg} }

var (
	_ Transport = (*Mock)(nil)
	_ Conn      = (*Mock)(nil)
)
