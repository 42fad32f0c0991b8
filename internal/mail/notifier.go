package mail

import (
	"context"
	"fmt"
	"time"

	"learnhub/internal/models"
	"learnhub/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) (string, error)
}

// LoginCodePayload is the body of a login_otp task.
type LoginCodePayload struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	TTLMinute int    `json:"ttl_minutes"`
}

// QueueNotifier hands login codes to the mail worker through the outbound stream.
type QueueNotifier struct {
	queue Enqueuer
}

func NewQueueNotifier(q Enqueuer) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

func (n *QueueNotifier) SendLoginCode(ctx context.Context, user models.User, code string, ttl time.Duration) error {
	task, err := queue.NewTask(queue.TaskLoginOtp, LoginCodePayload{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		TTLMinute: int(ttl / time.Minute),
	})
	if err != nil {
		return err
	}
	if _, err := n.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue login code for user %d: %w", user.ID, err)
	}
	return nil
}
