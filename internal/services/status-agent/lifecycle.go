package status_agent

import (
	"context"
	"fmt"
)

// Deactivate stops the background sync, drops everything cached and waits for
// in-flight status events. No events are published after it.
func (s *Service) Deactivate(ctx context.Context) error {
	s.mu.Lock()
	sched := s.sched
	s.closed = true
	s.mu.Unlock()

	var err error
	if sched != nil {
		err = sched.Stop(ctx)
	}
	s.resetCache()
	s.pending.Wait()
	s.log.Info("agent deactivated")
	return err
}

// Uninstall deactivates and removes the stored settings, credential included.
func (s *Service) Uninstall(ctx context.Context) error {
	if err := s.Deactivate(ctx); err != nil {
		return err
	}
	if err := s.settings.Delete(ctx); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	s.log.Info("agent uninstalled")
	return nil
}
