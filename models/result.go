package models

// ResultStatus classifies the terminal outcome of one processed event.
type ResultStatus string

const (
	// StatusAccepted covers success, idempotent no-ops, and skipped
	// non-actionable events.
	StatusAccepted ResultStatus = "accepted"
	// StatusRejected marks invalid input; no remote call was attempted.
	StatusRejected ResultStatus = "rejected"
	// StatusRemoteFailure marks a lock-service error; re-delivery of the
	// same event can retry.
	StatusRemoteFailure ResultStatus = "remote_failure"
)

// EventResult is the per-event outcome returned to the event source.
type EventResult struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message"`
}

func Accepted(message string) EventResult {
	return EventResult{Status: StatusAccepted, Message: message}
}

func Rejected(message string) EventResult {
	return EventResult{Status: StatusRejected, Message: message}
}

func RemoteFailure(message string) EventResult {
	return EventResult{Status: StatusRemoteFailure, Message: message}
}

// CleanupResult summarizes one expired-code sweep.
type CleanupResult struct {
	Checked int  `json:"checked"`
	Deleted int  `json:"deleted"`
	DryRun  bool `json:"dry_run,omitempty"`
}
