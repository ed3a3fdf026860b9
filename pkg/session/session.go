package session

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
)

// Status is a session's lifecycle state, persisted to its control file
// so ListSessions can report it without a live process handle.
type Status string

const (
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
)

// Config describes how to start a new session.
type Config struct {
	Command   []string
	Cwd       string
	Env       []string
	Name      string
	Width     int
	Height    int
	IsSpawned bool // true when the caller will call Start() itself
}

// Info is a session's persisted, serializable metadata -- everything
// ListSessions needs without touching the live process.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Command   []string  `json:"command"`
	Cwd       string    `json:"cwd"`
	Pid       int       `json:"pid"`
	Status    Status    `json:"status"`
	ExitCode  int       `json:"exitCode"`
	StartedAt time.Time `json:"startedAt"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// Session wraps one PTY-backed child process and its control directory.
// Output is forwarded to the owning Manager's callback registry rather
// than buffered here -- pkg/termsocket is the one place output actually
// gets turned into screen state.
type Session struct {
	mu sync.RWMutex

	ID          string
	Name        string
	controlPath string
	info        Info

	cmd  *exec.Cmd
	ptmx *os.File

	streamFile  *os.File
	streamStart time.Time

	manager *Manager
}

// StreamOutPath is the session's asciinema-format recording, the
// on-disk fallback pkg/termsocket polls when its Manager has no
// session.Manager to register a direct PTY callback with.
func (s *Session) StreamOutPath() string {
	return filepath.Join(s.Path(), "stream-out")
}

func newSession(mgr *Manager, config Config) (*Session, error) {
	return newSessionWithID(mgr, generateID(), config)
}

func newSessionWithID(mgr *Manager, id string, config Config) (*Session, error) {
	s := &Session{
		ID:          id,
		Name:        config.Name,
		controlPath: mgr.controlPath,
		manager:     mgr,
		info: Info{
			ID:      id,
			Name:    config.Name,
			Command: config.Command,
			Cwd:     config.Cwd,
			Status:  StatusExited,
			Width:   config.Width,
			Height:  config.Height,
		},
	}
	if err := os.MkdirAll(s.Path(), 0o755); err != nil {
		return nil, fmt.Errorf("session: create control dir: %w", err)
	}
	return s, s.writeInfo()
}

// Path returns the session's control directory.
func (s *Session) Path() string {
	return filepath.Join(s.controlPath, s.ID)
}

func (s *Session) infoPath() string {
	return filepath.Join(s.Path(), "session.json")
}

func (s *Session) writeInfo() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.info, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.infoPath(), data, 0o644)
}

// Start spawns the session's command behind a PTY and begins streaming
// its output to the owning Manager's registered callbacks.
func (s *Session) Start() error {
	if len(s.info.Command) == 0 {
		return fmt.Errorf("session: empty command")
	}

	cmd := exec.Command(s.info.Command[0], s.info.Command[1:]...)
	cmd.Dir = s.info.Cwd
	cmd.Env = os.Environ()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(s.info.Width),
		Rows: uint16(s.info.Height),
	})
	if err != nil {
		return fmt.Errorf("session: start pty: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.ptmx = ptmx
	s.info.Pid = cmd.Process.Pid
	s.info.Status = StatusRunning
	s.info.StartedAt = nowFunc()
	s.streamStart = s.info.StartedAt
	s.mu.Unlock()

	if err := s.writeInfo(); err != nil {
		return err
	}

	streamFile, err := os.Create(s.StreamOutPath())
	if err != nil {
		return fmt.Errorf("session: create stream file: %w", err)
	}
	s.streamFile = streamFile
	header, _ := json.Marshal(map[string]interface{}{
		"version": 2,
		"width":   s.info.Width,
		"height":  s.info.Height,
	})
	streamFile.Write(append(header, '\n'))

	go s.readLoop()
	go s.waitLoop()
	return nil
}

func (s *Session) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.manager.NotifyDirectOutput(s.ID, data)
			s.manager.NotifyRawPTY(s.ID, data)
			s.appendStreamEvent("o", string(data))
		}
		if err != nil {
			if s.streamFile != nil {
				s.streamFile.Close()
			}
			return
		}
	}
}

// appendStreamEvent writes one asciinema-format event line: [elapsed
// seconds, event type, data].
func (s *Session) appendStreamEvent(eventType, data string) {
	if s.streamFile == nil {
		return
	}
	elapsed := nowFunc().Sub(s.streamStart).Seconds()
	line, err := json.Marshal([]interface{}{elapsed, eventType, data})
	if err != nil {
		return
	}
	s.streamFile.Write(append(line, '\n'))
}

func (s *Session) waitLoop() {
	err := s.cmd.Wait()
	s.mu.Lock()
	s.info.Status = StatusExited
	if exitErr, ok := err.(*exec.ExitError); ok {
		s.info.ExitCode = exitErr.ExitCode()
	}
	s.mu.Unlock()
	_ = s.writeInfo()
}

// Write sends input to the session's PTY.
func (s *Session) Write(data []byte) (int, error) {
	s.mu.RLock()
	ptmx := s.ptmx
	s.mu.RUnlock()
	if ptmx == nil {
		return 0, fmt.Errorf("session: not started")
	}
	return ptmx.Write(data)
}

// Resize changes the PTY's reported window size.
func (s *Session) Resize(cols, rows int) error {
	s.mu.Lock()
	s.info.Width, s.info.Height = cols, rows
	ptmx := s.ptmx
	s.mu.Unlock()
	if ptmx == nil {
		return nil
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return err
	}
	s.appendStreamEvent("r", fmt.Sprintf("%dx%d", cols, rows))
	return s.writeInfo()
}

// IsAlive reports whether the session's process is still running,
// refreshing Status from the live process first.
func (s *Session) IsAlive() bool {
	s.UpdateStatus()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Status == StatusRunning
}

// UpdateStatus re-derives Status from the underlying process (when this
// Session object was constructed live) or leaves a disk-loaded Session
// as the last persisted value otherwise.
func (s *Session) UpdateStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	if s.cmd.ProcessState != nil {
		s.info.Status = StatusExited
		return
	}
	if err := s.cmd.Process.Signal(syscall.Signal(0)); err != nil {
		s.info.Status = StatusExited
	}
}

// Info returns a copy of the session's current metadata.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

func loadSession(mgr *Manager, controlPath, id string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(controlPath, id, "session.json"))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &Session{
		ID:          info.ID,
		Name:        info.Name,
		controlPath: controlPath,
		manager:     mgr,
		info:        info,
	}, nil
}

var nowFunc = time.Now

func generateID() string {
	return uuid.NewString()
}
