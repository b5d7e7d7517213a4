// Package monitor periodically refreshes marker containment and writes a
// status snapshot of the yard map.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/surface"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Surface    *surface.Surface
	LogManager *logging.SlogManager
	// StatusPath is rewritten with the latest Status on every tick when set.
	StatusPath string
	Interval   time.Duration
}

// Status is a snapshot of the yard map.
type Status struct {
	Time         time.Time      `json:"time"`
	Zones        int            `json:"zones"`
	Markers      int            `json:"markers"`
	Occupancy    map[string]int `json:"occupancy"`
	Mode         string         `json:"mode"`
	SelectedZone string         `json:"selectedZone,omitempty"`
	LastError    string         `json:"lastError,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps Dependencies

	mu        sync.RWMutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Tick refreshes markers and returns the resulting status.
func (s *Service) Tick(ctx context.Context) Status {
	surf := s.deps.Surface
	st := Status{Time: time.Now()}
	if err := surf.RefreshMarkers(ctx); err != nil {
		st.LastError = err.Error()
	}

	markers := surf.Markers()
	st.Zones = len(surf.Store().Zones())
	st.Markers = len(markers)
	st.Occupancy = locator.Occupancy(markers)
	st.Mode = string(surf.Mode())
	st.SelectedZone = surf.Store().SelectedID()
	return st
}

func (s *Service) writeLog(function, data, level string) {
	if s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog(function, data, level)
	}
}

// Start starts the status monitor goroutine. It stops when ctx is done or
// Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	var statusFile *os.File
	if s.deps.StatusPath != "" {
		f, err := os.Create(s.deps.StatusPath)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error creating status file: %w", err)
		}
		statusFile = f
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		if statusFile != nil {
			defer statusFile.Close()
		}

		s.writeLog("monitor", fmt.Sprintf("Status monitor started, interval %s", s.deps.Interval), "DEBUG")
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		lastErr := ""
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			st := s.Tick(ctx)
			if st.LastError != "" && st.LastError != lastErr {
				s.writeLog("monitor", "Marker refresh failed: "+st.LastError, "WARN")
			}
			lastErr = st.LastError

			if statusFile != nil {
				if err := writeStatus(statusFile, st); err != nil {
					s.writeLog("monitor", fmt.Sprintf("Error writing status file: %v", err), "ERROR")
				}
			}
		}
	}()

	return nil
}

func writeStatus(f *os.File, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	stop, done := s.stopChan, s.done
	s.isRunning = false
	s.mu.Unlock()

	close(stop)
	<-done
}
