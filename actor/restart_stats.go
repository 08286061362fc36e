package actor

import "time"

// RestartStatistics tracks the timestamps of an actor's recent recoverable
// failures, pruned against a supervisor strategy's `within` window each time
// a new failure is considered.
type RestartStatistics struct {
	failures []time.Time
}

// NewRestartStatistics returns an empty statistics record.
func NewRestartStatistics() *RestartStatistics {
	return &RestartStatistics{}
}

// prune drops every recorded failure at or before cutoff.
func (s *RestartStatistics) prune(cutoff time.Time) {
	kept := s.failures[:0]
	for _, t := range s.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.failures = kept
}

// record appends now to the failure history.
func (s *RestartStatistics) record(now time.Time) {
	s.failures = append(s.failures, now)
}

// count reports the number of failures currently retained (after the caller
// has pruned).
func (s *RestartStatistics) count() int {
	return len(s.failures)
}

// reset clears the failure history, used when a strategy decides to Stop
// rather than Restart.
func (s *RestartStatistics) reset() {
	s.failures = nil
}
