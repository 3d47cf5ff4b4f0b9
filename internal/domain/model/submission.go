package model

import "time"

// Submission represents a sighting submitted for asynchronous ranking.
// Exactly one of Payload (raw oracle text) or Raw (a pre-decoded record)
// carries the data.
type Submission struct {
	SubmissionID string    // unique id for idempotency
	Payload      string    // raw oracle response text, salvage-parsed by workers
	Raw          RawRecord // pre-decoded record, used when Payload is empty
	TS           time.Time // submission timestamp
}
