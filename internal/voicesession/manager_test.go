package voicesession

import (
	"context"
	"testing"
)

func newTestManager(dialer Dialer) *Manager {
	return NewManager(ManagerConfig{Dialer: dialer, Log: testLogger()})
}

func TestNewManager(t *testing.T) {
	mgr := NewManager(ManagerConfig{})
	if mgr == nil {
		t.Fatal("NewManager should not return nil")
	}
	if mgr.sessions == nil {
		t.Error("sessions map should be initialized")
	}
	if mgr.log == nil {
		t.Error("logger should not be nil")
	}
	if mgr.clock == nil {
		t.Error("clock should default to the wall clock")
	}
}

func TestManager_GetSession_NotFound(t *testing.T) {
	mgr := newTestManager(nil)
	ctrl, ok := mgr.GetSession("nonexistent")
	if ok {
		t.Error("should not find nonexistent session")
	}
	if ctrl != nil {
		t.Error("controller should be nil for nonexistent client")
	}
}

func TestManager_CreateSession(t *testing.T) {
	mgr := newTestManager(&mockDialer{links: []*mockLink{newMockLink()}})
	ctrl := mgr.CreateSession("client_1", ClientBindings{Listener: &recordingListener{}})

	got, ok := mgr.GetSession("client_1")
	if !ok || got != ctrl {
		t.Error("expected created controller to be registered")
	}
	if mgr.SessionCount() != 1 {
		t.Errorf("expected 1 session, got %d", mgr.SessionCount())
	}
}

func TestManager_CreateSession_ReplacesExisting(t *testing.T) {
	link := newMockLink()
	mic := newMockMicrophone()
	mgr := newTestManager(&mockDialer{links: []*mockLink{link}})

	first := mgr.CreateSession("client_1", ClientBindings{Microphones: &mockMicProvider{mic: mic}})
	if err := first.Connect(context.Background(), validRequest()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	second := mgr.CreateSession("client_1", ClientBindings{})

	if first.State() != StateDisconnected {
		t.Errorf("expected replaced controller disconnected, got %s", first.State())
	}
	if link.CloseCalls() != 1 {
		t.Errorf("expected replaced link closed, got %d", link.CloseCalls())
	}
	got, _ := mgr.GetSession("client_1")
	if got != second {
		t.Error("expected new controller registered")
	}
	if mgr.SessionCount() != 1 {
		t.Errorf("expected 1 session, got %d", mgr.SessionCount())
	}
}

func TestManager_RemoveSession_Stale(t *testing.T) {
	mgr := newTestManager(nil)
	first := mgr.CreateSession("client_1", ClientBindings{})
	second := mgr.CreateSession("client_1", ClientBindings{})

	mgr.RemoveSession("client_1", first)

	got, ok := mgr.GetSession("client_1")
	if !ok || got != second {
		t.Error("removing a stale controller must keep the current one")
	}

	mgr.RemoveSession("client_1", second)
	if mgr.SessionCount() != 0 {
		t.Errorf("expected 0 sessions, got %d", mgr.SessionCount())
	}
}

func TestManager_RemoveSession_Nonexistent(t *testing.T) {
	mgr := newTestManager(nil)
	mgr.RemoveSession("nonexistent", nil)
}

func TestManager_ListSessions(t *testing.T) {
	mgr := newTestManager(nil)
	mgr.CreateSession("b", ClientBindings{})
	mgr.CreateSession("a", ClientBindings{})

	sessions := mgr.ListSessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ClientID != "a" || sessions[1].ClientID != "b" {
		t.Errorf("expected sorted client ids, got %s, %s", sessions[0].ClientID, sessions[1].ClientID)
	}
	if sessions[0].State != StateDisconnected {
		t.Errorf("expected DISCONNECTED, got %s", sessions[0].State)
	}
}

func TestManager_Close(t *testing.T) {
	mgr := newTestManager(nil)
	mgr.CreateSession("client_1", ClientBindings{})

	if err := mgr.Close(); err != nil {
		t.Errorf("Close should not error: %v", err)
	}
	if mgr.SessionCount() != 0 {
		t.Error("sessions should be cleared after Close")
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close should not error: %v", err)
	}
}
