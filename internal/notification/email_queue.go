package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultQueueKey is the Redis list holding pending emails.
	DefaultQueueKey = "mail:outbox"
	// DefaultMaxAttempts bounds redelivery before an email is dead-lettered.
	DefaultMaxAttempts = 5
)

// ErrQueueEmpty is returned by ProcessOne when no email arrived before the timeout.
var ErrQueueEmpty = errors.New("mail queue empty")

// QueuedEmail is the JSON payload stored on the queue.
type QueuedEmail struct {
	Email      Email     `json:"email"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Attempts   int       `json:"attempts"`
}

// deadLetterKey holds emails that exhausted their attempts.
func deadLetterKey(key string) string { return key + ":dead" }

// queueEmailSender pushes emails onto a Redis list for cmd/mailer to deliver.
type queueEmailSender struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

// NewQueueEmailSender creates a sender that enqueues emails under key.
func NewQueueEmailSender(rdb *redis.Client, key string) EmailSender {
	if key == "" {
		key = DefaultQueueKey
	}
	return &queueEmailSender{rdb: rdb, key: key, now: time.Now}
}

func (s *queueEmailSender) Send(ctx context.Context, email Email) error {
	data, err := json.Marshal(QueuedEmail{Email: email, EnqueuedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("lpush email: %w", err)
	}
	return nil
}

// QueueConsumer drains the Redis mail queue into a delivering EmailSender.
type QueueConsumer struct {
	rdb         *redis.Client
	key         string
	sender      EmailSender
	log         *slog.Logger
	maxAttempts int
	popTimeout  time.Duration
}

// NewQueueConsumer creates a consumer delivering through sender.
func NewQueueConsumer(rdb *redis.Client, key string, sender EmailSender, log *slog.Logger) *QueueConsumer {
	if key == "" {
		key = DefaultQueueKey
	}
	return &QueueConsumer{
		rdb:         rdb,
		key:         key,
		sender:      sender,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
		popTimeout:  5 * time.Second,
	}
}

// Run processes emails until ctx is cancelled.
func (c *QueueConsumer) Run(ctx context.Context) error {
	c.log.Info("mail queue consumer started", "queue", c.key)
	for {
		if ctx.Err() != nil {
			c.log.Info("mail queue consumer stopped")
			return nil
		}
		err := c.ProcessOne(ctx, c.popTimeout)
		switch {
		case err == nil, errors.Is(err, ErrQueueEmpty):
		case ctx.Err() != nil:
			c.log.Info("mail queue consumer stopped")
			return nil
		default:
			c.log.Error("mail queue processing failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne pops one email, waiting up to timeout, and delivers it. A failed
// delivery is requeued until maxAttempts, then moved to the dead-letter list.
func (c *QueueConsumer) ProcessOne(ctx context.Context, timeout time.Duration) error {
	result, err := c.rdb.BRPop(ctx, timeout, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrQueueEmpty
	}
	if err != nil {
		return fmt.Errorf("brpop email: %w", err)
	}
	if len(result) < 2 {
		return fmt.Errorf("invalid brpop response: %v", result)
	}

	var queued QueuedEmail
	if err := json.Unmarshal([]byte(result[1]), &queued); err != nil {
		c.log.Error("dropping malformed queued email", "error", err)
		return c.rdb.LPush(context.WithoutCancel(ctx), deadLetterKey(c.key), result[1]).Err()
	}

	sendErr := c.sender.Send(ctx, queued.Email)
	if sendErr == nil {
		c.log.Info("queued email delivered", "subject", queued.Email.Subject, "attempt", queued.Attempts+1)
		return nil
	}

	queued.Attempts++
	target := c.key
	if queued.Attempts >= c.maxAttempts {
		target = deadLetterKey(c.key)
	}
	data, err := json.Marshal(queued)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	// The popped email only exists in memory now, so the push must outlive a
	// shutdown. RPush puts a retry back at the consuming end of the list.
	if err := c.rdb.RPush(context.WithoutCancel(ctx), target, data).Err(); err != nil {
		return fmt.Errorf("requeue email: %w", err)
	}
	return fmt.Errorf("deliver queued email (attempt %d): %w", queued.Attempts, sendErr)
}
