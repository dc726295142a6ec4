// Package job provides domain types for background job processing.
package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies what a job does. The worker dispatches on it.
type Type string

const (
	// TypeOrderConfirmation sends the order confirmation email after checkout.
	TypeOrderConfirmation Type = "order-confirmation"
)

// Topic is the queue a job is published to.
type Topic string

const (
	// TopicEmail carries all email jobs.
	TopicEmail Topic = "email"
)

// Status is how a worker settled one attempt of a job.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusRetrying   Status = "retrying"
	StatusDeadLetter Status = "dead_letter"
)

// Job is the message stored in the queue.
type Job struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EmailPayload represents the payload for an email job.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate checks that the payload can be delivered.
func (p EmailPayload) Validate() error {
	if p.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidPayload)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidPayload)
	}
	return nil
}

// DeadLetter is what gets recorded when a job exhausts its attempts or
// fails permanently.
type DeadLetter struct {
	Job      *Job      `json:"job"`
	Reason   string    `json:"reason"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failed_at"`
}

// IsValid returns true if the job type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeOrderConfirmation:
		return true
	default:
		return false
	}
}

// TopicFor returns the queue a job type is published to.
func TopicFor(t Type) Topic {
	switch t {
	case TypeOrderConfirmation:
		return TopicEmail
	default:
		return Topic(t)
	}
}

// New creates a job with a fresh ID, marshalling payload to JSON.
func New(jobType Type, payload any) (*Job, error) {
	if !jobType.IsValid() {
		return nil, ErrInvalidJobType
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodePayload unmarshals the job payload into dest.
func (j *Job) DecodePayload(dest any) error {
	if err := json.Unmarshal(j.Payload, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
