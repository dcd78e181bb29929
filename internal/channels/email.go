package channels

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/notification-service/internal/models"
)

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type emailJob struct {
	userID  string
	to      string
	subject string
	body    string
}

// Outbox is a bounded queue drained by a fixed pool of workers. Enqueue
// never blocks; send failures are logged and dropped.
type Outbox struct {
	mailer  Mailer
	timeout time.Duration
	logger  *slog.Logger

	jobs chan emailJob
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewOutbox(mailer Mailer, workers, queueSize int, timeout time.Duration, logger *slog.Logger) *Outbox {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := &Outbox{
		mailer:  mailer,
		timeout: timeout,
		logger:  logger,
		jobs:    make(chan emailJob, queueSize),
	}

	o.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go o.worker()
	}
	return o
}

func (o *Outbox) worker() {
	defer o.wg.Done()
	for job := range o.jobs {
		o.deliver(job)
	}
}

func (o *Outbox) deliver(job emailJob) {
	ctx := context.Background()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Email send panicked", "user_id", job.userID, "panic", r)
		}
	}()

	if err := o.mailer.Send(ctx, job.to, job.subject, job.body); err != nil {
		o.logger.Error("Failed to send email", "user_id", job.userID, "error", err)
		return
	}
	o.logger.Debug("Email sent", "user_id", job.userID)
}

// Enqueue schedules an email. It fails fast when the queue is full or the
// outbox has been closed.
func (o *Outbox) Enqueue(userID, to, subject, body string) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return ErrOutboxClosed
	}

	select {
	case o.jobs <- emailJob{userID: userID, to: to, subject: subject, body: body}:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish or ctx to
// expire.
func (o *Outbox) Close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.jobs)
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EmailSender queues an email for recipients that have an address.
type EmailSender struct {
	outbox *Outbox
}

func NewEmailSender(outbox *Outbox) *EmailSender {
	return &EmailSender{outbox: outbox}
}

func (s *EmailSender) Channel() models.Channel {
	return models.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, to Recipient, msg Message) (Outcome, error) {
	if s.outbox == nil {
		return Skipped, ErrNotConfigured
	}
	if to.Email == "" {
		return Skipped, nil
	}
	if err := s.outbox.Enqueue(to.UserID, to.Email, msg.Subject, msg.Body); err != nil {
		return Skipped, err
	}
	return Delivered, nil
}
