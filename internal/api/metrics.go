package api

// MetricsRecorder receives gateway and renewal events. Implementations live
// in the metrics adapter; a nil recorder disables instrumentation.
type MetricsRecorder interface {
	RequestDispatched(method, path string, status int)
	RequestReplayed()
	RenewalSucceeded()
	RenewalFailed()
}
