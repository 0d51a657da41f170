// Package profiling writes CPU, heap and execution-trace profiles.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/dustin/go-humanize"
)

// Options names the profile outputs. Empty paths are disabled.
type Options struct {
	CPUPath   string
	HeapPath  string
	TracePath string
}

// Enabled reports whether any profile is requested.
func (o Options) Enabled() bool {
	return o.CPUPath != "" || o.HeapPath != "" || o.TracePath != ""
}

// Session is a set of running profiles started together.
type Session struct {
	opts    Options
	stopCPU func()
	stopTr  func()
}

// Start begins the CPU profile and trace requested by opts. The heap
// profile is written by Stop, so it reflects the end of the run.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}

	if opts.CPUPath != "" {
		stop, err := StartCPU(opts.CPUPath)
		if err != nil {
			return nil, err
		}
		s.stopCPU = stop
	}
	if opts.TracePath != "" {
		stop, err := StartTrace(opts.TracePath)
		if err != nil {
			if s.stopCPU != nil {
				s.stopCPU()
			}
			return nil, err
		}
		s.stopTr = stop
	}
	return s, nil
}

// Stop ends running profiles and writes the heap profile.
func (s *Session) Stop() error {
	if s.stopCPU != nil {
		s.stopCPU()
		s.stopCPU = nil
	}
	if s.stopTr != nil {
		s.stopTr()
		s.stopTr = nil
	}
	var errs []error
	if s.opts.HeapPath != "" {
		errs = append(errs, WriteHeap(s.opts.HeapPath))
	}
	return errors.Join(errs...)
}

// StartCPU starts CPU profiling to path.
// The returned function stops profiling and flushes data.
func StartCPU(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// WriteHeap writes a heap profile to path.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Up-to-date statistics
	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}

// StartTrace starts execution tracing to path.
// The returned function stops tracing.
func StartTrace(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start trace: %w", err)
	}

	return func() {
		trace.Stop()
		_ = f.Close()
	}, nil
}

// MemSummary describes current heap usage in one line.
func MemSummary() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("heap %s in use, %s from OS, %d GC cycles",
		humanize.IBytes(m.HeapInuse), humanize.IBytes(m.Sys), m.NumGC)
}
