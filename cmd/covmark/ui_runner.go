package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"covmark/internal/driver"
	"covmark/internal/ui"
)

// runWatchWithUI polls in the background while the dashboard runs in the
// foreground. Quitting the dashboard stops the poller.
func runWatchWithUI(ctx context.Context, title string, s *driver.Session, phases chan driver.PhaseEvent, poll func(context.Context)) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	updates, cancel := s.Subscribe()
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		poll(ctx)
		cancel()
		// наблюдатель зовётся только из Refresh, после poll писать некому
		close(phases)
	}()

	model := ui.NewWatchModel(title, phases, updates)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	stop()
	<-pollDone
	return uiErr
}

// phaseForwarder returns an observer that drops events when the UI lags.
func phaseForwarder(ch chan<- driver.PhaseEvent) driver.PhaseObserver {
	return func(ev driver.PhaseEvent) {
		select {
		case ch <- ev:
		default:
		}
	}
}
