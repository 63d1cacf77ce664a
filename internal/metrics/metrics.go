package metrics

import "time"

// Metrics records recommender activity.
type Metrics interface {
	ObserveInterpretation(provider, model string, duration time.Duration, outcome string)
	ObserveMatch(mode string, results int, duration time.Duration)
	ObserveDataLoad(duration time.Duration, rejected int, err error)
}

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveInterpretation(_ string, _ string, _ time.Duration, _ string) {}

func (n *NoopMetrics) ObserveMatch(_ string, _ int, _ time.Duration) {}

func (n *NoopMetrics) ObserveDataLoad(_ time.Duration, _ int, _ error) {}
