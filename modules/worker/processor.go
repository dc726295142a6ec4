package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/shop-monolith/domain/job"
	"github.com/example/shop-monolith/modules/mailer"
)

// ErrPermanent marks failures that no retry can fix.
var ErrPermanent = errors.New("permanent failure")

// Processor executes a job by type.
type Processor struct {
	transport mailer.Transport
}

// NewProcessor creates a processor that sends email through transport.
func NewProcessor(transport mailer.Transport) *Processor {
	return &Processor{transport: transport}
}

// Process runs the job. Errors wrapping ErrPermanent must not be retried.
func (p *Processor) Process(ctx context.Context, j *job.Job) error {
	switch j.Type {
	case job.TypeOrderConfirmation:
		return p.processOrderConfirmation(ctx, j)
	default:
		return fmt.Errorf("%w: %v %q", ErrPermanent, job.ErrInvalidJobType, j.Type)
	}
}

func (p *Processor) processOrderConfirmation(ctx context.Context, j *job.Job) error {
	var payload job.EmailPayload
	if err := j.DecodePayload(&payload); err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	if err := p.transport.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		if errors.Is(err, mailer.ErrInvalidHeader) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}
