package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	TaskLoginOtp     = "login_otp"
	TaskPurgeExpired = "purge_expired"
)

var ErrMalformedTask = errors.New("malformed task")

// Task is one stream entry: a type tag plus a JSON payload.
type Task struct {
	Type    string
	Payload json.RawMessage
}

func NewTask(taskType string, payload any) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	return Task{Type: taskType, Payload: raw}, nil
}

func (t Task) Decode(out any) error {
	if err := json.Unmarshal(t.Payload, out); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedTask, t.Type, err)
	}
	return nil
}

func (t Task) values() map[string]any {
	return map[string]any{
		"type":    t.Type,
		"payload": string(t.Payload),
	}
}

func DecodeMessage(msg redis.XMessage) (Task, error) {
	taskType, _ := msg.Values["type"].(string)
	if taskType == "" {
		return Task{}, fmt.Errorf("%w: missing type in %s", ErrMalformedTask, msg.ID)
	}
	payload, _ := msg.Values["payload"].(string)
	if payload == "" {
		payload = "{}"
	}
	return Task{Type: taskType, Payload: json.RawMessage(payload)}, nil
}
