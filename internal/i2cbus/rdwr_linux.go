//go:build linux

package i2cbus

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/thinkier/dfr-io-hat/internal/hardware"
)

const (
	i2cRdwrIOCTL = 0x0707 // I2C_RDWR ioctl: combined write+read with REPEATED START
	i2cMsgRD     = 0x0001 // i2c_msg flag: read direction
	maxOpsPerSec = 500
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// RDWR opens /dev/i2c-N and performs every transfer as one I2C_RDWR ioctl,
// throttled to maxOpsPerSec.
type RDWR struct{}

func (RDWR) Open(bus int) (hardware.Conn, error) {
	path := fmt.Sprintf("/dev/i2c-%d", bus)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	dev := &rdwrBus{fd: fd, path: path}
	return NewTxConn(dev, dev, rate.NewLimiter(rate.Limit(maxOpsPerSec), 10)), nil
}

// rdwrBus is a drivers.I2C backed by a /dev/i2c-N file descriptor.
type rdwrBus struct {
	mu   sync.Mutex
	fd   int
	path string
}

// Tx writes w and then reads into r with a repeated start, as one ioctl.
func (b *rdwrBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return fmt.Errorf("i2c: %s closed", b.path)
	}

	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: 0, length: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: i2cMsgRD, length: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))}
		n++
	}
	if n == 0 {
		return nil
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(n)}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return fmt.Errorf("I2C_RDWR 0x%02x: %w", addr, errno)
	}
	return nil
}

// Close releases the I2C file descriptor.
func (b *rdwrBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
