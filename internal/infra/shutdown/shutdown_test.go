package shutdown

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

func TestHandler_Trigger_RunsHooksInReverse(t *testing.T) {
	h := NewHandler(5*time.Second, logger.Discard())

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		h.OnShutdown(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	h.Trigger("test")
	h.Trigger("ignored")

	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if got := strings.Join(order, ","); got != "third,second,first" {
		t.Errorf("hook order = %s, want third,second,first", got)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after Wait()")
	}
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	ran := 0
	h.OnShutdown("a", func(context.Context) error { ran++; return errA })
	h.OnShutdown("ok", func(context.Context) error { ran++; return nil })
	h.OnShutdown("b", func(context.Context) error { ran++; return errB })

	h.Trigger("test")
	err := h.Wait(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() error = %v, want both hook errors", err)
	}
	if ran != 3 {
		t.Errorf("hooks run = %d, want 3", ran)
	}
	if !strings.Contains(err.Error(), "a: a failed") {
		t.Errorf("error %q should name the failing hook", err)
	}
}

func TestHandler_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h.OnShutdown("hook", func(context.Context) error { called = true; return nil })

	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !called {
		t.Error("hook not called after context cancel")
	}
}

func TestHandler_HookTimeout(t *testing.T) {
	h := NewHandler(20*time.Millisecond, logger.Discard())
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger("test")
	if err := h.Wait(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}
