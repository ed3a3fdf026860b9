package session

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// DirectOutputCallback is called when PTY output is available
type DirectOutputCallback func(sessionID string, data []byte)

type Manager struct {
	controlPath           string
	runningSessions       map[string]*Session
	mutex                 sync.RWMutex
	doNotAllowColumnSet   bool
	directOutputCallbacks map[string][]DirectOutputCallback
	rawCallbacks          map[string][]RawPTYCallback
	callbackMutex         sync.RWMutex
}

func NewManager(controlPath string) *Manager {
	return &Manager{
		controlPath:           controlPath,
		runningSessions:       make(map[string]*Session),
		directOutputCallbacks: make(map[string][]DirectOutputCallback),
		rawCallbacks:          make(map[string][]RawPTYCallback),
	}
}

// SetDoNotAllowColumnSet sets the flag to disable terminal resizing for all sessions
func (m *Manager) SetDoNotAllowColumnSet(value bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.doNotAllowColumnSet = value
}

// GetDoNotAllowColumnSet returns the current value of the resize disable flag
func (m *Manager) GetDoNotAllowColumnSet() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.doNotAllowColumnSet
}

func (m *Manager) CreateSession(config Config) (*Session, error) {
	if err := os.MkdirAll(m.controlPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create control directory: %w", err)
	}

	sess, err := newSession(m, config)
	if err != nil {
		return nil, err
	}

	// For spawned sessions, don't start the PTY immediately
	// The PTY will be created when the spawned terminal connects
	if !config.IsSpawned {
		if err := sess.Start(); err != nil {
			if removeErr := os.RemoveAll(sess.Path()); removeErr != nil {
				log.Printf("[ERROR] Failed to remove session path after start failure: %v", removeErr)
			}
			return nil, err
		}
	} else if os.Getenv("VIBETUNNEL_DEBUG") != "" {
		log.Printf("[DEBUG] Created spawned session %s - waiting for terminal to attach", sess.ID)
	}

	m.mutex.Lock()
	m.runningSessions[sess.ID] = sess
	m.mutex.Unlock()

	return sess, nil
}

func (m *Manager) CreateSessionWithID(id string, config Config) (*Session, error) {
	if err := os.MkdirAll(m.controlPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create control directory: %w", err)
	}

	sess, err := newSessionWithID(m, id, config)
	if err != nil {
		return nil, err
	}

	if !config.IsSpawned {
		if err := sess.Start(); err != nil {
			if removeErr := os.RemoveAll(sess.Path()); removeErr != nil {
				log.Printf("[ERROR] Failed to remove session path after start failure: %v", removeErr)
			}
			return nil, err
		}
	} else if os.Getenv("VIBETUNNEL_DEBUG") != "" {
		log.Printf("[DEBUG] Created spawned session %s with ID - waiting for terminal to attach", sess.ID)
	}

	m.mutex.Lock()
	m.runningSessions[sess.ID] = sess
	m.mutex.Unlock()

	return sess, nil
}

func (m *Manager) GetSession(id string) (*Session, error) {
	m.mutex.RLock()
	if sess, exists := m.runningSessions[id]; exists {
		m.mutex.RUnlock()
		return sess, nil
	}
	m.mutex.RUnlock()

	// Fall back to loading from disk (for sessions started before this manager instance)
	return loadSession(m, m.controlPath, id)
}

func (m *Manager) FindSession(nameOrID string) (*Session, error) {
	sessions, err := m.ListSessions()
	if err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if s.ID == nameOrID || s.Name == nameOrID || strings.HasPrefix(s.ID, nameOrID) {
			return m.GetSession(s.ID)
		}
	}

	return nil, fmt.Errorf("session not found: %s", nameOrID)
}

func (m *Manager) ListSessions() ([]*Info, error) {
	entries, err := os.ReadDir(m.controlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Info{}, nil
		}
		return nil, err
	}

	sessions := make([]*Info, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sess, err := loadSession(m, m.controlPath, entry.Name())
		if err != nil {
			if os.Getenv("VIBETUNNEL_DEBUG") != "" {
				log.Printf("[DEBUG] Failed to load session %s: %v", entry.Name(), err)
			}
			continue
		}

		// Only update status if it's not already marked as exited to reduce CPU usage
		if sess.info.Status != StatusExited {
			sess.UpdateStatus()
		}

		info := sess.Info()
		sessions = append(sessions, &info)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	return sessions, nil
}

// CleanupExitedSessions only updates session status; use
// RemoveExitedSessions for actual disk cleanup.
func (m *Manager) CleanupExitedSessions() error {
	return m.UpdateAllSessionStatuses()
}

// RemoveExitedSessions actually removes dead sessions from disk (manual cleanup)
func (m *Manager) RemoveExitedSessions() error {
	sessions, err := m.ListSessions()
	if err != nil {
		return err
	}

	var errs []error
	for _, info := range sessions {
		shouldRemove := false

		if info.Pid == 0 {
			shouldRemove = true
		} else {
			// Use ps command to check process status (portable across Unix systems)
			cmd := exec.Command("ps", "-p", strconv.Itoa(info.Pid), "-o", "stat=")
			output, err := cmd.Output()

			if err != nil {
				shouldRemove = true
			} else {
				stat := strings.TrimSpace(string(output))
				if strings.HasPrefix(stat, "Z") {
					shouldRemove = true
					var status syscall.WaitStatus
					if _, err := syscall.Wait4(info.Pid, &status, syscall.WNOHANG, nil); err != nil {
						log.Printf("[WARN] Failed to reap zombie process %d: %v", info.Pid, err)
					}
				}
			}
		}

		if shouldRemove {
			sessionPath := filepath.Join(m.controlPath, info.ID)
			if err := os.RemoveAll(sessionPath); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", info.ID, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}

	return nil
}

// UpdateAllSessionStatuses updates the status of all sessions
func (m *Manager) UpdateAllSessionStatuses() error {
	sessions, err := m.ListSessions()
	if err != nil {
		return err
	}

	for _, info := range sessions {
		if sess, err := m.GetSession(info.ID); err == nil {
			sess.UpdateStatus()
		}
	}

	return nil
}

func (m *Manager) RemoveSession(id string) error {
	m.mutex.Lock()
	delete(m.runningSessions, id)
	m.mutex.Unlock()

	m.callbackMutex.Lock()
	delete(m.directOutputCallbacks, id)
	m.callbackMutex.Unlock()

	m.UnregisterRawPTYCallback(id)

	sessionPath := filepath.Join(m.controlPath, id)
	return os.RemoveAll(sessionPath)
}

// RegisterDirectOutputCallback registers a callback for direct PTY output
func (m *Manager) RegisterDirectOutputCallback(sessionID string, callback DirectOutputCallback) {
	m.callbackMutex.Lock()
	defer m.callbackMutex.Unlock()

	m.directOutputCallbacks[sessionID] = append(m.directOutputCallbacks[sessionID], callback)
}

// UnregisterDirectOutputCallback removes every registered callback for a session.
func (m *Manager) UnregisterDirectOutputCallback(sessionID string, _ DirectOutputCallback) {
	m.callbackMutex.Lock()
	defer m.callbackMutex.Unlock()
	delete(m.directOutputCallbacks, sessionID)
}

// NotifyDirectOutput notifies all registered callbacks of new PTY output
func (m *Manager) NotifyDirectOutput(sessionID string, data []byte) {
	m.callbackMutex.RLock()
	callbacks := m.directOutputCallbacks[sessionID]
	m.callbackMutex.RUnlock()

	for _, callback := range callbacks {
		go callback(sessionID, data) // Non-blocking to prevent slowdowns
	}
}

// RawPTYCallback receives raw PTY bytes with no buffer processing in between.
type RawPTYCallback func(sessionID string, data []byte)

func (m *Manager) RegisterRawPTYCallback(sessionID string, callback RawPTYCallback) {
	m.callbackMutex.Lock()
	defer m.callbackMutex.Unlock()
	m.rawCallbacks[sessionID] = append(m.rawCallbacks[sessionID], callback)
}

func (m *Manager) UnregisterRawPTYCallback(sessionID string) {
	m.callbackMutex.Lock()
	defer m.callbackMutex.Unlock()
	delete(m.rawCallbacks, sessionID)
}

func (m *Manager) NotifyRawPTY(sessionID string, data []byte) {
	m.callbackMutex.RLock()
	callbacks := m.rawCallbacks[sessionID]
	m.callbackMutex.RUnlock()

	for _, callback := range callbacks {
		callback(sessionID, data) // Direct call - no goroutine for raw speed
	}
}
