package vm

import (
	"errors"
	"testing"
)

func TestMemoryReadWrite(t *testing.T) {
	t.Parallel()

	mem := NewMemory()

	if err := mem.Write(0x3000, 0xbeef); err != nil {
		t.Fatal(err)
	}

	got, err := mem.Read(0x3000)
	if err != nil {
		t.Fatal(err)
	}

	if got != 0xbeef {
		t.Errorf("got %#x, want 0xbeef", got)
	}
}

func TestMemoryFetchStore(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	mem.MAR = 0x3001
	mem.MDR = 0x00ff

	if err := mem.Store(); err != nil {
		t.Fatal(err)
	}

	mem.MDR = 0

	if err := mem.Fetch(); err != nil {
		t.Fatal(err)
	}

	if mem.MDR != 0x00ff {
		t.Errorf("MDR = %#x, want 0x00ff", mem.MDR)
	}
}

func TestMemoryUnmappedIOErrors(t *testing.T) {
	t.Parallel()

	mem := NewMemory()

	_, err := mem.Read(IOPageAddr)
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}

	var memErr *MemoryError
	if !errors.As(err, &memErr) {
		t.Fatalf("err is not a *MemoryError: %v", err)
	}

	if memErr.Addr != IOPageAddr {
		t.Errorf("Addr = %s, want %s", memErr.Addr, IOPageAddr)
	}
}

func TestMMIOKeyboard(t *testing.T) {
	t.Parallel()

	mmio := NewMMIO()
	kbd := NewKeyboard()

	mmio.Map(map[Word]Device{
		KBSRAddr: kbd,
		KBDRAddr: kbd,
	})

	status, err := mmio.Load(KBSRAddr)
	if err != nil {
		t.Fatal(err)
	}

	if status != 0 {
		t.Errorf("KBSR = %#x, want 0 with no input pending", status)
	}

	kbd.Feed('x')

	status, err = mmio.Load(KBSRAddr)
	if err != nil {
		t.Fatal(err)
	}

	if status != KeyboardReady {
		t.Errorf("KBSR = %#x, want ready bit set", status)
	}

	data, err := mmio.Load(KBDRAddr)
	if err != nil {
		t.Fatal(err)
	}

	if data != Register('x') {
		t.Errorf("KBDR = %q, want 'x'", rune(data))
	}

	status, err = mmio.Load(KBSRAddr)
	if err != nil {
		t.Fatal(err)
	}

	if status != 0 {
		t.Errorf("KBSR = %#x, want 0 after queue drained", status)
	}
}

func TestMMIOWriteReadOnlyDevice(t *testing.T) {
	t.Parallel()

	mmio := NewMMIO()
	kbd := NewKeyboard()

	mmio.Map(map[Word]Device{KBSRAddr: kbd})

	if err := mmio.Store(KBSRAddr, 0xffff); err != nil {
		t.Errorf("write to keyboard status register should be a no-op, got %v", err)
	}
}

func TestMMIOUnmappedDevice(t *testing.T) {
	t.Parallel()

	mmio := NewMMIO()

	if err := mmio.Store(KBSRAddr, 1); !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}
}
