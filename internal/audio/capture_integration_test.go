//go:build integration

package audio

import (
	"context"
	"testing"
	"time"
)

// These tests require actual audio hardware and are skipped by default.
// Run with: go test -tags=integration ./internal/audio

func TestCapture_Init_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if capture.ctx == nil {
		t.Error("Init() did not set context")
	}
}

func TestCapture_ListDevices_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	devices, err := capture.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}

	t.Logf("Found %d capture devices:", len(devices))
	for i, d := range devices {
		t.Logf("  [%d] %s", i, d.Name())
	}
}

func TestCapture_BadDeviceIndex_Integration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeviceIndex = 1 << 20
	capture := New(cfg)
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := capture.Start(context.Background()); err == nil {
		t.Error("Start() with out of range device should fail")
	}
}

func TestCapture_Callback_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got := make(chan int, 1)
	capture.SetCallback(func(samples []float32) {
		select {
		case got <- len(samples):
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !capture.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	select {
	case n := <-got:
		if n == 0 {
			t.Error("received empty sample buffer")
		}
	case <-ctx.Done():
		t.Error("timeout waiting for samples")
	}

	if err := capture.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if capture.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
}

func TestCapture_ContextCancellation_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)

	if capture.IsRunning() {
		t.Error("IsRunning() = true after context cancellation")
	}
}
