package webchat

import (
	"log/slog"
	"testing"

	"github.com/quorumhub/quorum-gateway/internal/channel"
)

func TestAdapterName(t *testing.T) {
	a := New(18780, slog.Default())
	if a.Name() != "webchat" {
		t.Errorf("Expected webchat, got %s", a.Name())
	}
}

func TestAdapterEnabled(t *testing.T) {
	if New(0, slog.Default()).Enabled() {
		t.Error("Adapter without port should be disabled")
	}
	if !New(18780, slog.Default()).Enabled() {
		t.Error("Adapter with port should be enabled")
	}
}

func TestDeliverBeforeStop(t *testing.T) {
	a := New(18780, slog.Default())
	if !a.deliver(&channel.Message{Content: "hi"}) {
		t.Fatal("Expected delivery before Stop")
	}
	msg := <-a.Incoming()
	if msg.Content != "hi" {
		t.Errorf("Unexpected message: %q", msg.Content)
	}
}

func TestStopLeavesIncomingOpen(t *testing.T) {
	a := New(18780, slog.Default())
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}

	// a socket reader mid-send must be refused, never panic
	if a.deliver(&channel.Message{Content: "late"}) {
		t.Error("Expected delivery to be refused after Stop")
	}
	select {
	case _, ok := <-a.Incoming():
		if !ok {
			t.Error("Incoming must stay open after Stop")
		}
	default:
	}
}
