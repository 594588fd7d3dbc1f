// Package entities defines core domain models and data structures.
package entities

import "time"

// Stage is a state of the launch sequence
type Stage string

// Launch sequence states, always entered in this order
const (
	StageStart             Stage = "START"
	StageVersionReported   Stage = "VERSION_REPORTED"
	StageDependencyChecked Stage = "DEPENDENCY_CHECKED"
	StageHealthChecked     Stage = "HEALTH_CHECKED"
	StageAborted           Stage = "ABORTED"
	StageLaunched          Stage = "LAUNCHED"
)

// RuntimeInfo is the identity reported by the language runtime
type RuntimeInfo struct {
	Interpreter string
	Raw         string // full output of the version query, e.g. "Python 3.11.4"
	Version     string // numeric part, e.g. "3.11.4"; empty when it could not be determined
}

// Display returns the version string shown to the operator
func (r RuntimeInfo) Display() string {
	if r.Raw == "" {
		return "unknown"
	}
	return r.Raw
}

// InstallResult is the inspectable outcome of a remediation attempt
type InstallResult struct {
	Attempted    bool
	Success      bool
	ExitCode     int
	Requirements int
	Duration     time.Duration
	Error        error
}

// EndpointStatus is the outcome of probing one companion endpoint
type EndpointStatus struct {
	URL        string
	Healthy    bool
	StatusCode int
	Latency    time.Duration
	Error      error
}

// HealthReport aggregates the probes of every companion endpoint
type HealthReport struct {
	Endpoints []EndpointStatus
}

// Healthy reports whether every endpoint answered with a 2xx status
func (h *HealthReport) Healthy() bool {
	if h == nil || len(h.Endpoints) == 0 {
		return false
	}
	for _, ep := range h.Endpoints {
		if !ep.Healthy {
			return false
		}
	}
	return true
}

// Unreachable returns the endpoints that failed their probe
func (h *HealthReport) Unreachable() []EndpointStatus {
	if h == nil {
		return nil
	}
	failed := make([]EndpointStatus, 0)
	for _, ep := range h.Endpoints {
		if !ep.Healthy {
			failed = append(failed, ep)
		}
	}
	return failed
}

// LaunchResult contains the result of a launcher run
type LaunchResult struct {
	Stages            []Stage
	Runtime           RuntimeInfo
	DependencyPresent bool
	Install           *InstallResult
	Health            *HealthReport
	Prompted          bool
	Confirmed         bool
	ExitCode          int
	Error             error
}

// Stage returns the most recent stage reached
func (r *LaunchResult) Stage() Stage {
	if len(r.Stages) == 0 {
		return StageStart
	}
	return r.Stages[len(r.Stages)-1]
}

// Enter records a transition into stage
func (r *LaunchResult) Enter(stage Stage) {
	r.Stages = append(r.Stages, stage)
}
