package model

import "time"

type Outcome string

const (
	OutcomeShipped       Outcome = "SHIPPED"
	OutcomeUnchanged     Outcome = "UNCHANGED"
	OutcomeAuthFailed    Outcome = "AUTH_FAILED"
	OutcomeFailed        Outcome = "FAILED"
	OutcomeSourceMissing Outcome = "SOURCE_MISSING"
)

// Succeeded reports whether the local file was consumed.
func (o Outcome) Succeeded() bool {
	return o == OutcomeShipped || o == OutcomeUnchanged
}

type TransferRequest struct {
	LocalPath  string
	ReportName string
}

type RemoteDestination struct {
	DateDir    string
	RemotePath string
}

type TransferResult struct {
	ID          string
	Request     TransferRequest
	Destination RemoteDestination
	Outcome     Outcome
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}
