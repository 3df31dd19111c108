package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSES struct {
	mu   sync.Mutex
	sent []*sesv2.SendEmailInput
	err  error
}

func (s *stubSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func (s *stubSES) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestEmailer(q *stubQueue, ses *stubSES) *Emailer {
	return &Emailer{
		cache:    q,
		client:   ses,
		queueKey: "test:queue",
		sender:   "no-reply@example.com",
	}
}

func mustMarshal(t *testing.T, msg Message) []byte {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	return payload
}

func TestCompose_NewAdmin(t *testing.T) {
	e := newTestEmailer(&stubQueue{}, &stubSES{})

	subject, body, err := e.compose(Message{
		Type:     TypeNewAdmin,
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "initial-pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the Afterhours LLM Service!", subject)
	assert.Contains(t, body, "Hi Ada,")
	assert.Contains(t, body, "Your initial password is: initial-pw")
}

func TestCompose_NewUser(t *testing.T) {
	e := newTestEmailer(&stubQueue{}, &stubSES{})

	subject, body, err := e.compose(Message{
		Type:      TypeNewUser,
		Name:      "Grace",
		Email:     "grace@example.com",
		APIKey:    "deadbeef",
		ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the Afterhours LLM Service API!", subject)
	assert.Contains(t, body, "Your initial API key is: deadbeef")
	assert.Contains(t, body, "March 1, 2026")
}

func TestCompose_NewKey(t *testing.T) {
	e := newTestEmailer(&stubQueue{}, &stubSES{})

	subject, body, err := e.compose(Message{
		Type:      TypeNewKey,
		Name:      "Grace",
		Email:     "grace@example.com",
		APIKey:    "cafef00d",
		ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "New key for the Afterhours LLM Service API!", subject)
	assert.Contains(t, body, "Your new API key is: cafef00d")
}

func TestCompose_DevModeTitle(t *testing.T) {
	e := newTestEmailer(&stubQueue{}, &stubSES{})
	e.devMode = true

	subject, _, err := e.compose(Message{Type: TypeNewAdmin, Name: "Ada"})
	require.NoError(t, err)
	assert.Contains(t, subject, "[DEV]")
}

func TestCompose_UnknownType(t *testing.T) {
	e := newTestEmailer(&stubQueue{}, &stubSES{})

	_, _, err := e.compose(Message{Type: "bogus"})
	assert.Error(t, err)
}

func TestDeliver_SendsToRecipient(t *testing.T) {
	ses := &stubSES{}
	e := newTestEmailer(&stubQueue{}, ses)

	err := e.deliver(context.Background(), Message{
		Type:  TypeNewAdmin,
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)
	require.Len(t, ses.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, ses.sent[0].Destination.ToAddresses)
	assert.Equal(t, "no-reply@example.com", aws.ToString(ses.sent[0].FromEmailAddress))
}

func TestRun_DrainsQueueUntilCanceled(t *testing.T) {
	q := &stubQueue{backlog: [][]byte{
		mustMarshal(t, Message{Type: TypeNewAdmin, Name: "Ada", Email: "ada@example.com"}),
		[]byte("not json"),
		mustMarshal(t, Message{Type: TypeNewKey, Name: "Grace", Email: "grace@example.com", APIKey: "k"}),
	}}
	ses := &stubSES{}
	e := newTestEmailer(q, ses)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	// The worker should drain the backlog, skipping the malformed entry.
	require.Eventually(t, func() bool { return ses.sentCount() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRun_DeliveryFailureDropsMessage(t *testing.T) {
	q := &stubQueue{backlog: [][]byte{
		mustMarshal(t, Message{Type: TypeNewAdmin, Name: "Ada", Email: "ada@example.com"}),
	}}
	ses := &stubSES{err: errors.New("ses unavailable")}
	e := newTestEmailer(q, ses)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return q.backlogLen() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
