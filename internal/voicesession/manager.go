package voicesession

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/playback"
)

// Manager keeps at most one controller per client id.
type Manager struct {
	dialer   Dialer
	clock    clock.Clock
	model    string
	voice    string
	sessions map[string]*Controller
	mu       sync.RWMutex
	log      *slog.Logger
}

type ManagerConfig struct {
	Dialer Dialer
	Clock  clock.Clock
	Model  string
	Voice  string
	Log    *slog.Logger
}

// ClientBindings are the per-client endpoints a controller talks to.
type ClientBindings struct {
	Microphones MicrophoneProvider
	Output      playback.Output
	Listener    Listener
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &Manager{
		dialer:   cfg.Dialer,
		clock:    cfg.Clock,
		model:    cfg.Model,
		voice:    cfg.Voice,
		sessions: make(map[string]*Controller),
		log:      cfg.Log.With("component", "voicesession_manager"),
	}
}

// CreateSession registers a fresh controller for clientID. A controller
// already registered for the same client is disconnected and replaced.
func (m *Manager) CreateSession(clientID string, b ClientBindings) *Controller {
	ctrl := NewController(Config{
		Dialer:      m.dialer,
		Microphones: b.Microphones,
		Output:      b.Output,
		Listener:    b.Listener,
		Clock:       m.clock,
		Model:       m.model,
		Voice:       m.voice,
		Log:         m.log.With("client_id", clientID),
	})

	m.mu.Lock()
	prev := m.sessions[clientID]
	m.sessions[clientID] = ctrl
	m.mu.Unlock()

	if prev != nil {
		prev.Disconnect()
		m.log.Info("voice session replaced", "client_id", clientID)
	} else {
		m.log.Info("voice session created", "client_id", clientID)
	}
	return ctrl
}

func (m *Manager) GetSession(clientID string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[clientID]
	return ctrl, ok
}

// RemoveSession disconnects and forgets ctrl if it is still the one registered
// for clientID.
func (m *Manager) RemoveSession(clientID string, ctrl *Controller) {
	m.mu.Lock()
	current, ok := m.sessions[clientID]
	if ok && current == ctrl {
		delete(m.sessions, clientID)
	}
	m.mu.Unlock()

	if ctrl != nil {
		ctrl.Disconnect()
	}
	if ok && current == ctrl {
		m.log.Info("voice session removed", "client_id", clientID)
	}
}

type SessionInfo struct {
	ClientID string `json:"client_id"`
	State    State  `json:"state"`
	Messages int    `json:"messages"`
}

func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) ListSessions() []SessionInfo {
	m.mu.RLock()
	sessions := make([]SessionInfo, 0, len(m.sessions))
	ctrls := make(map[string]*Controller, len(m.sessions))
	for id, ctrl := range m.sessions {
		ctrls[id] = ctrl
	}
	m.mu.RUnlock()

	for id, ctrl := range ctrls {
		sessions = append(sessions, SessionInfo{
			ClientID: id,
			State:    ctrl.State(),
			Messages: len(ctrl.Messages()),
		})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ClientID < sessions[j].ClientID })
	return sessions
}

func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := make([]*Controller, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Disconnect()
	}
	return nil
}
