package services

import "sync"

// FeatureSwitch is the process-wide "lending enabled" flag. Managers flip
// it with the on/off keywords when a club session starts and ends.
type FeatureSwitch struct {
	mu      sync.RWMutex
	enabled bool
}

// NewFeatureSwitch creates a switch in the off position.
func NewFeatureSwitch() *FeatureSwitch {
	return &FeatureSwitch{}
}

// Enabled reports the current position.
func (s *FeatureSwitch) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Set moves the switch and reports whether the position actually changed,
// so "on" while already on can answer without a store write.
func (s *FeatureSwitch) Set(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled == enabled {
		return false
	}
	s.enabled = enabled
	return true
}
