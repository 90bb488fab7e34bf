package i2cbus_test

import (
	"testing"

	"github.com/thinkier/dfr-io-hat/internal/i2cbus"
)

func TestNames(t *testing.T) {
	got := i2cbus.Names()
	want := []string{"periph", "rdwr", "smbus"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := i2cbus.New("spi"); err == nil {
		t.Error("New(\"spi\"): expected error")
	}
}

func TestNew_Periph(t *testing.T) {
	tr, err := i2cbus.New(i2cbus.BackendPeriph)
	if err != nil {
		t.Fatalf("New(periph): %v", err)
	}
	if tr == nil {
		t.Fatal("New(periph) returned nil transport")
	}
}

func TestPeriph_OpenMissingBus(t *testing.T) {
	// Bus 250 does not exist on any test host.
	if _, err := (i2cbus.Periph{}).Open(250); err == nil {
		t.Skip("bus 250 unexpectedly present")
	}
}
