package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSESMailer_Send(t *testing.T) {
	client := &fakeSES{}
	m := newSESMailer(client, "no-reply@example.com", "Event Booking", testLogger())

	err := m.Send(context.Background(), "ada@example.com", "Hello", "<p>hi</p>", "hi")
	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, "Event Booking <no-reply@example.com>", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"ada@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Hello", aws.ToString(client.input.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(client.input.Message.Body.Html.Data))
	assert.Equal(t, "hi", aws.ToString(client.input.Message.Body.Text.Data))
}

func TestSESMailer_Send_textOnlyAndError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	m := newSESMailer(client, "no-reply@example.com", "", testLogger())

	err := m.Send(context.Background(), "ada@example.com", "Hello", "", "hi")
	require.Error(t, err)
	assert.Equal(t, "no-reply@example.com", aws.ToString(client.input.Source))
	assert.Nil(t, client.input.Message.Body.Html)
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(MailerConfig{Provider: "noop"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &noopMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), "a@b.co", "s", "h", "t"))

	m, err = NewMailer(MailerConfig{Provider: "carrier-pigeon"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &noopMailer{}, m)

	_, err = NewMailer(MailerConfig{Provider: ProviderSES}, testLogger())
	assert.Error(t, err)

	m, err = NewMailer(MailerConfig{
		Provider:    ProviderSES,
		FromAddress: "no-reply@example.com",
		SES:         SESConfig{Region: "eu-west-1", AccessKeyID: "AKID", SecretAccessKey: "secret"},
	}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &sesMailer{}, m)
}
