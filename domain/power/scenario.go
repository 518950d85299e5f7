package power

// Scenario is a named sample size request, the unit of batch processing
type Scenario struct {
	Name    string            `json:"name" yaml:"name"`
	Request SampleSizeRequest `json:"request" yaml:",inline"`
}

// BatchOutcome pairs a scenario with its result or its validation error
type BatchOutcome struct {
	Scenario Scenario          `json:"scenario"`
	Result   *SampleSizeResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}
