package portal

import (
	"errors"
	"testing"
	"time"
)

func TestSimDriverInjectedEventsFirst(t *testing.T) {
	d := NewSimDriver()
	defer d.Close() //nolint:errcheck

	want := TagEvent{Pad: PadCircle, ID: "deadbeef"}
	d.Inject(want)

	got, ok, err := d.PollEvent(time.Millisecond)
	if err != nil {
		t.Fatalf("PollEvent() error = %v", err)
	}
	if !ok {
		t.Fatal("PollEvent() ok = false, want true")
	}
	if got != want {
		t.Errorf("PollEvent() = %+v, want %+v", got, want)
	}
}

func TestSimDriverRemovalsMatchPlacements(t *testing.T) {
	d := NewSimDriver()
	defer d.Close() //nolint:errcheck
	d.EventChance = 1.0

	placed := make(map[string]bool)
	for i := 0; i < 200; i++ {
		evt, ok, err := d.PollEvent(time.Millisecond)
		if err != nil {
			t.Fatalf("PollEvent() error = %v", err)
		}
		if !ok {
			t.Fatal("PollEvent() ok = false with EventChance=1.0")
		}

		if evt.Removed {
			if !placed[evt.ID] {
				t.Fatalf("removal for %q which was never placed", evt.ID)
			}
			delete(placed, evt.ID)
		} else {
			placed[evt.ID] = true
		}

		if evt.Pad < PadCircle || evt.Pad > PadRight {
			t.Errorf("event pad = %v, want a physical pad", evt.Pad)
		}
	}
}

func TestSimDriverQuietPoll(t *testing.T) {
	d := NewSimDriver()
	defer d.Close()           //nolint:errcheck
	d.EventChance = 0.0000001 // Effectively never

	_, ok, err := d.PollEvent(time.Millisecond)
	if err != nil {
		t.Fatalf("PollEvent() error = %v", err)
	}
	if ok {
		t.Skip("random event on a near-zero chance, rerun")
	}
}

func TestSimDriverColorCommandsCount(t *testing.T) {
	d := NewSimDriver()
	defer d.Close() //nolint:errcheck

	if err := d.ChangeColor(PadAll, ColorDim); err != nil {
		t.Fatalf("ChangeColor() error = %v", err)
	}
	if err := d.FadeColor(PadCircle, 10, 1, ColorBlue); err != nil {
		t.Fatalf("FadeColor() error = %v", err)
	}
	if err := d.FlashColor(PadLeft, 8, 8, 4, ColorRed); err != nil {
		t.Fatalf("FlashColor() error = %v", err)
	}

	if got := d.CommandsSent(); got != 3 {
		t.Errorf("CommandsSent() = %d, want 3", got)
	}
}

func TestSimDriverClosed(t *testing.T) {
	d := NewSimDriver()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := d.SendCommand([32]byte{}); !errors.Is(err, ErrClosed) {
		t.Errorf("SendCommand() after close error = %v, want ErrClosed", err)
	}
	if _, _, err := d.PollEvent(time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Errorf("PollEvent() after close error = %v, want ErrClosed", err)
	}
}
