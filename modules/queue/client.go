// Package queue provides the durable job queue on NATS JetStream.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/shop-monolith/domain/job"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the name of the JetStream stream for jobs.
	StreamName = "JOBS"
	// SubjectJobs matches every job subject.
	SubjectJobs = "jobs.>"
	// SubjectDeadLetter is the subject for dead-letter messages.
	SubjectDeadLetter = "jobs.dead_letter"
	// ConsumerName is the name of the durable email consumer.
	ConsumerName = "email-workers"
	// HeaderReason carries the dead-letter reason.
	HeaderReason = "Job-Dead-Letter-Reason"
)

// SubjectFor returns the subject a topic is published on.
func SubjectFor(topic job.Topic) string {
	return "jobs." + string(topic)
}

// Config holds NATS client configuration.
type Config struct {
	URL         string
	MaxAttempts int
	AckWait     time.Duration
	MaxAge      time.Duration
	// MaxInFlight caps how many messages Subscribe pulls ahead of the
	// workers. Set it to the worker count.
	MaxInFlight int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		URL:         nats.DefaultURL,
		MaxAttempts: 3,
		AckWait:     AckWaitFor(30 * time.Second),
		MaxAge:      7 * 24 * time.Hour,
		MaxInFlight: 5,
	}
}

// AckWaitFor returns the ack deadline for jobs that may run for up to
// jobTimeout. A message can sit in the pull buffer for about one job run
// before a worker takes it and resets the deadline.
func AckWaitFor(jobTimeout time.Duration) time.Duration {
	return 2*jobTimeout + 10*time.Second
}

// Client provides NATS JetStream operations for the job queue.
type Client struct {
	config   Config
	logger   types.Logger
	nc       *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
}

// NewClient creates a new JetStream client. Call Connect before use.
func NewClient(cfg Config, logger types.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger,
	}
}

// Connect establishes the connection and creates the stream and consumer.
func (c *Client) Connect(ctx context.Context) error {
	nc, err := nats.Connect(c.config.URL,
		nats.Name("shop-monolith-queue"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	c.js = js

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Background jobs queue",
		Subjects:    []string{SubjectJobs},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      c.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create stream: %w", err)
	}
	c.stream = stream

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          ConsumerName,
		Durable:       ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.config.AckWait,
		MaxDeliver:    c.config.MaxAttempts + 1,
		FilterSubject: SubjectFor(job.TopicEmail),
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	c.consumer = consumer

	c.logger.Info("Connected to NATS", "url", c.config.URL, "stream", StreamName, "consumer", ConsumerName)
	return nil
}

// Enqueue publishes a new job and returns its ID. The job ID doubles as the
// JetStream message ID, so a retried publish is de-duplicated.
func (c *Client) Enqueue(ctx context.Context, jobType job.Type, payload any) (string, error) {
	if c.js == nil {
		return "", job.ErrQueueUnavailable
	}

	j, err := job.New(jobType, payload)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	ack, err := c.js.Publish(ctx, SubjectFor(job.TopicFor(jobType)), data, jetstream.WithMsgID(j.ID))
	if err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}

	c.logger.Debug("Job enqueued", "job_id", j.ID, "type", j.Type, "sequence", ack.Sequence)
	return j.ID, nil
}

// PublishDeadLetter records a job that will not be retried.
func (c *Client) PublishDeadLetter(ctx context.Context, dl *job.DeadLetter) error {
	if c.js == nil {
		return job.ErrQueueUnavailable
	}

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter message: %w", err)
	}

	msg := nats.NewMsg(SubjectDeadLetter)
	msg.Data = data
	msg.Header.Set(HeaderReason, dl.Reason)

	if _, err := c.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to dead-letter: %w", err)
	}

	c.logger.Warn("Job dead-lettered", "job_id", dl.Job.ID, "attempts", dl.Attempts, "reason", dl.Reason)
	return nil
}

// Subscribe starts consuming email jobs. The returned channel is closed when
// ctx is cancelled. Messages that cannot be decoded are terminated.
func (c *Client) Subscribe(ctx context.Context) (<-chan *Delivery, error) {
	if c.consumer == nil {
		return nil, errors.New("consumer not initialized")
	}

	maxInFlight := c.config.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	iter, err := c.consumer.Messages(jetstream.PullMaxMessages(maxInFlight))
	if err != nil {
		return nil, fmt.Errorf("failed to create message iterator: %w", err)
	}

	deliveries := make(chan *Delivery)

	// Next blocks, so the iterator is stopped from a separate goroutine.
	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	go func() {
		defer close(deliveries)

		for {
			msg, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed) {
					return
				}
				c.logger.Warn("Error fetching message", "error", err)
				continue
			}

			var j job.Job
			if err := json.Unmarshal(msg.Data(), &j); err != nil || j.ID == "" {
				c.logger.Error("Dropping malformed job message", "subject", msg.Subject(), "error", err)
				if err := msg.Term(); err != nil {
					c.logger.Warn("Error terminating message", "error", err)
				}
				continue
			}

			attempt := 1
			if md, err := msg.Metadata(); err == nil && md != nil {
				attempt = int(md.NumDelivered)
			}

			select {
			case deliveries <- NewDelivery(&j, attempt, msg):
			case <-ctx.Done():
				// Unacked; JetStream redelivers after AckWait.
				return
			}
		}
	}()

	return deliveries, nil
}

// Acknowledger settles a received message. jetstream.Msg implements it.
type Acknowledger interface {
	Ack() error
	InProgress() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// Delivery is a received job together with its acknowledgement handle.
type Delivery struct {
	Job     *job.Job
	Attempt int
	msg     Acknowledger
}

// NewDelivery wraps a job with the handle used to settle it.
func NewDelivery(j *job.Job, attempt int, ack Acknowledger) *Delivery {
	return &Delivery{Job: j, Attempt: attempt, msg: ack}
}

// Ack acknowledges successful processing.
func (d *Delivery) Ack() error {
	return d.msg.Ack()
}

// InProgress restarts the ack deadline. Workers call it when they pick the
// job up, so time spent waiting in the pull buffer does not count.
func (d *Delivery) InProgress() error {
	return d.msg.InProgress()
}

// NakWithDelay asks for redelivery after delay.
func (d *Delivery) NakWithDelay(delay time.Duration) error {
	return d.msg.NakWithDelay(delay)
}

// Term stops further redeliveries.
func (d *Delivery) Term() error {
	return d.msg.Term()
}

// Close drains and closes the NATS connection.
func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// StreamInfo returns information about the job stream.
func (c *Client) StreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	if c.stream == nil {
		return nil, errors.New("stream not initialized")
	}
	return c.stream.Info(ctx)
}

// ConsumerInfo returns information about the email consumer.
func (c *Client) ConsumerInfo(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	if c.consumer == nil {
		return nil, errors.New("consumer not initialized")
	}
	return c.consumer.Info(ctx)
}
