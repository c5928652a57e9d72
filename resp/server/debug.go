package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// CPU Profiler
// --------------------------------------------------------------------------

// profiler wraps the process-wide CPU profiler behind DEBUG PROFILER_START /
// PROFILER_STOP. Only one profile can run at a time.
type profiler struct {
	mu   sync.Mutex
	file *os.File
}

// Start begins a CPU profile into a timestamped file in the temp directory
func (p *profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file != nil {
		return errors.New("profiler already running")
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("redikv-cpu-%d.pprof", time.Now().Unix()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create profile file: %v", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to start profiler: %v", err)
	}

	p.file = f
	logger.Infof("CPU profiler started, writing to %s", path)
	return nil
}

// Stop ends the running profile and closes the output file
func (p *profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return errors.New("profiler not running")
	}

	pprof.StopCPUProfile()
	name := p.file.Name()
	err := p.file.Close()
	p.file = nil

	logger.Infof("CPU profiler stopped, profile written to %s", name)
	return err
}
