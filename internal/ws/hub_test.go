package ws

import "testing"

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(1, nil, ConnInfo{MemberID: 7})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected group room to be created")
	}
	if info, ok := hub.getConnInfo(1, nil); !ok || info.MemberID != 7 {
		t.Fatalf("expected conn info to be recorded")
	}

	hub.RemoveClient(1, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected group room to be removed")
	}
	if len(hub.connInfo) != 0 {
		t.Fatalf("expected conn info to be removed")
	}
}

func TestHubSnapshotIsACopy(t *testing.T) {
	hub := NewHub()
	hub.AddClient(1, nil, ConnInfo{MemberID: 7})

	// Broadcasts iterate over a snapshot, so removing the client after taking
	// it must not affect the copy.
	conns := hub.connsSnapshot(1)
	hub.RemoveClient(1, nil)

	if len(conns) != 1 {
		t.Fatalf("expected snapshot to keep the connection, got %d", len(conns))
	}
	if len(hub.rooms) != 0 {
		t.Fatalf("expected room to be gone after removal")
	}
}

func TestHubRemoveUnknownClient(t *testing.T) {
	hub := NewHub()

	// removing from an unknown room must not panic
	hub.RemoveClient(42, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected no rooms")
	}
}
