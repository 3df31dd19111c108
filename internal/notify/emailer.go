package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexgladd/llmsvc/internal/cache"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const serviceTitle = "Afterhours LLM Service"

// popTimeout bounds each blocking queue read so the worker notices shutdown.
const popTimeout = 5 * time.Second

// sesClient is the slice of the SESv2 API the emailer uses.
type sesClient interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Emailer drains the notification queue and delivers emails through SESv2.
type Emailer struct {
	cache    cache.Cache
	client   sesClient
	queueKey string
	sender   string
	devMode  bool
}

// NewEmailer creates an Emailer using the default AWS credential chain.
func NewEmailer(ctx context.Context, ca cache.Cache, region, queueKey, sender string, devMode bool) (*Emailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Emailer{
		cache:    ca,
		client:   sesv2.NewFromConfig(cfg),
		queueKey: queueKey,
		sender:   sender,
		devMode:  devMode,
	}, nil
}

// Run drains the queue until ctx is canceled. Delivery failures are logged
// and the message is dropped; the queue is advisory, not durable.
func (e *Emailer) Run(ctx context.Context) {
	slog.Info("emailer worker started", "queue", e.queueKey)
	for {
		payload, found, err := e.cache.PopQueue(ctx, e.queueKey, popTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Info("emailer worker stopped")
				return
			}
			slog.Error("pop notification queue", "error", err)
			continue
		}
		if !found {
			continue
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			slog.Error("decode notification", "error", err)
			continue
		}

		if err := e.deliver(ctx, msg); err != nil {
			slog.Error("send notification email", "error", err, "type", msg.Type, "email", msg.Email)
			continue
		}
		slog.Info("notification email sent", "type", msg.Type, "email", msg.Email)
	}
}

func (e *Emailer) deliver(ctx context.Context, msg Message) error {
	subject, body, err := e.compose(msg)
	if err != nil {
		return err
	}

	_, err = e.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	return err
}

func (e *Emailer) title() string {
	if e.devMode {
		return serviceTitle + " [DEV]"
	}
	return serviceTitle
}

func (e *Emailer) compose(msg Message) (subject, body string, err error) {
	title := e.title()
	switch msg.Type {
	case TypeNewAdmin:
		subject = fmt.Sprintf("Welcome to the %s!", title)
		body = fmt.Sprintf(`Hi %s,

An admin account has been created for you at the %s.

Your initial password is: %s

We strongly recommend changing your password once you successfully log in.

If you don't want an account, you can safely ignore this message.

Cheers,
~Admins
`, msg.Name, title, msg.Password)
	case TypeNewUser:
		subject = fmt.Sprintf("Welcome to the %s API!", title)
		body = fmt.Sprintf(`Hi %s,

You have been granted access to the %s API. You'll want to check out the
endpoints for Models, Completions, and Chat.

Your initial API key is: %s

This key expires on %s.

Please ensure that this API key never gets checked into any version control system. We recommend
using local environment variables instead. Please let an admin know ASAP if any API key gets exposed
or lost so that we can revoke it.

If you don't want or need access to the service, you can safely ignore this message.

Cheers,
~Admins
`, msg.Name, title, msg.APIKey, formatExpiry(msg.ExpiresAt))
	case TypeNewKey:
		subject = fmt.Sprintf("New key for the %s API!", title)
		body = fmt.Sprintf(`Hi %s,

A new API key has been created for you to access the %s API.

Your new API key is: %s

This key expires on %s.

Please ensure that this API key never gets checked into any version control system. We recommend
using local environment variables instead. Please let an admin know ASAP if any API key gets exposed
or lost so that we can revoke it.

If you don't want or need access to the service, you can safely ignore this message.

Cheers,
~Admins
`, msg.Name, title, msg.APIKey, formatExpiry(msg.ExpiresAt))
	default:
		return "", "", fmt.Errorf("unknown notification type %q", msg.Type)
	}
	return subject, body, nil
}

func formatExpiry(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM MST")
}
