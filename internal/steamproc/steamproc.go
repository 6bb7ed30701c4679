// Package steamproc controls the Steam client process. The external
// stores must not be rewritten while Steam is running, since the client
// rewrites config.vdf and the appmanifest files on its own schedule, so
// the engine shuts Steam down before mutating them and relaunches it
// through the GreenLuma injector afterwards.
package steamproc

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const steamExe = "steam.exe"

// Manager inspects and controls Steam processes.
type Manager struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log}
}

func steamProcesses() ([]*process.Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	var found []*process.Process
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(name, steamExe) {
			found = append(found, p)
		}
	}
	return found, nil
}

// IsRunning reports whether any Steam process exists.
func (m *Manager) IsRunning() (bool, error) {
	procs, err := steamProcesses()
	if err != nil {
		return false, err
	}
	return len(procs) > 0, nil
}

// Terminate asks every Steam process to exit, escalating to a kill for
// processes still alive after a grace period. It returns how many
// processes were signalled.
func (m *Manager) Terminate() (int, error) {
	procs, err := steamProcesses()
	if err != nil {
		return 0, err
	}
	if len(procs) == 0 {
		return 0, nil
	}

	signalled := 0
	for _, p := range procs {
		if err := p.Terminate(); err != nil {
			m.log.Warn("failed to terminate Steam process", zap.Int32("pid", p.Pid), zap.Error(err))
			continue
		}
		signalled++
	}

	time.Sleep(time.Second)

	for _, p := range procs {
		running, err := p.IsRunning()
		if err != nil || !running {
			continue
		}
		m.log.Info("force killing Steam process", zap.Int32("pid", p.Pid))
		if err := p.Kill(); err != nil {
			m.log.Warn("failed to kill Steam process", zap.Int32("pid", p.Pid), zap.Error(err))
		}
	}
	return signalled, nil
}

// WaitForExit polls until no Steam process remains or the context is
// cancelled.
func (m *Manager) WaitForExit(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		running, err := m.IsRunning()
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("steam did not exit: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// LaunchWithInjector starts Steam through the GreenLuma DLL injector.
// The injector expects to run from its own directory.
func (m *Manager) LaunchWithInjector(injectorPath string) error {
	cmd := exec.Command(injectorPath)
	cmd.Dir = filepath.Dir(injectorPath)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start injector: %w", err)
	}
	m.log.Info("launched Steam via injector", zap.String("injector", injectorPath), zap.Int("pid", cmd.Process.Pid))
	// The injector runs detached; we do not wait on it.
	return cmd.Process.Release()
}
