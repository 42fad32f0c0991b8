package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/mail"
	"learnhub/internal/queue"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakePurger struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePurger) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

func newTestProcessor(sender MailSender, otps, tokens Purger) *Processor {
	p := NewProcessor(zerolog.Nop(), sender, otps, tokens, 7*24*time.Hour)
	p.now = func() time.Time { return time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC) }
	return p
}

func mustTask(t *testing.T, taskType string, payload any) queue.Task {
	t.Helper()
	task, err := queue.NewTask(taskType, payload)
	require.NoError(t, err)
	return task
}

func TestHandleLoginOtpSendsMail(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, &fakePurger{}, &fakePurger{})

	task := mustTask(t, queue.TaskLoginOtp, mail.LoginCodePayload{UserID: 3, Email: "ada@example.com", Code: "123456", TTLMinute: 10})
	require.NoError(t, p.Handle(context.Background(), task))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "123456")
}

func TestHandleLoginOtpPropagatesSendFailure(t *testing.T) {
	boom := errors.New("connection refused")
	p := newTestProcessor(&recordingSender{err: boom}, &fakePurger{}, &fakePurger{})

	task := mustTask(t, queue.TaskLoginOtp, mail.LoginCodePayload{Email: "ada@example.com", Code: "123456"})
	assert.ErrorIs(t, p.Handle(context.Background(), task), boom)
}

func TestHandleLoginOtpRejectsIncompletePayload(t *testing.T) {
	sender := &recordingSender{}
	p := newTestProcessor(sender, &fakePurger{}, &fakePurger{})

	task := mustTask(t, queue.TaskLoginOtp, mail.LoginCodePayload{Email: "ada@example.com"})
	assert.ErrorIs(t, p.Handle(context.Background(), task), queue.ErrMalformedTask)
	assert.Empty(t, sender.sent)
}

func TestHandlePurgeUsesRetentionCutoff(t *testing.T) {
	otps := &fakePurger{n: 4}
	tokens := &fakePurger{n: 9}
	p := newTestProcessor(&recordingSender{}, otps, tokens)

	require.NoError(t, p.Handle(context.Background(), mustTask(t, queue.TaskPurgeExpired, struct{}{})))

	want := time.Date(2026, 3, 3, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, want, otps.cutoff)
	assert.Equal(t, want, tokens.cutoff)
}

func TestHandlePurgeStopsOnError(t *testing.T) {
	otps := &fakePurger{err: errors.New("db gone")}
	tokens := &fakePurger{}
	p := newTestProcessor(&recordingSender{}, otps, tokens)

	assert.Error(t, p.Handle(context.Background(), mustTask(t, queue.TaskPurgeExpired, struct{}{})))
	assert.True(t, tokens.cutoff.IsZero())
}

func TestHandleIgnoresUnknownTask(t *testing.T) {
	p := newTestProcessor(&recordingSender{}, &fakePurger{}, &fakePurger{})
	assert.NoError(t, p.Handle(context.Background(), queue.Task{Type: "reindex", Payload: []byte("{}")}))
}
