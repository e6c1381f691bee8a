package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"covmark/internal/diag"
	"covmark/internal/driver"
	"covmark/internal/observ"
	"covmark/internal/project"
	"covmark/internal/report"
)

type sessionOpts struct {
	noCache  bool
	noPragma bool
	timings  bool
	observer driver.PhaseObserver
}

// openSession builds a session from settings. The returned timer is nil
// unless timings were requested.
func openSession(cfg project.Settings, r diag.Reporter, so sessionOpts) (*driver.Session, *observ.Timer, error) {
	if so.noCache {
		cfg.Cache.Enabled = false
	}
	if so.noPragma {
		cfg.Pragma.Enabled = false
	}
	scfg, err := driver.ConfigFromSettings(cfg, r)
	if err != nil {
		return nil, nil, err
	}
	var timer *observ.Timer
	if so.timings {
		timer = observ.NewTimer()
	}
	scfg.Timer = timer
	scfg.Observer = so.observer
	s, err := driver.NewSession(scfg)
	if err != nil {
		return nil, nil, err
	}
	return s, timer, nil
}

// loadIndex does one refresh and turns a missing report into a readable error.
func loadIndex(ctx context.Context, s *driver.Session) (*report.Index, error) {
	idx, err := s.Refresh(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("coverage report not found: %s", s.ReportPath())
		}
		return nil, err
	}
	return idx, nil
}
