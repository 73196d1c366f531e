package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/logging"
	"github.com/dmitrijs2005/foundationauth/internal/server/config"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

const link = "https://auth.example.com/api/auth/verify-email?token=abc123"

var (
	sender = Address{Name: "FoundationAuth Support", Email: "no-reply@example.com"}
	fixed  = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
)

func bob() *models.User {
	return &models.User{ID: "u-1", Username: "bob", Email: "bob@example.com"}
}

func render(t *testing.T) *Message {
	t.Helper()
	r, err := NewRenderer(24 * time.Hour)
	require.NoError(t, err)
	msg, err := r.Verification(sender, bob(), link)
	require.NoError(t, err)
	return msg
}

type senderFunc func(ctx context.Context, msg *Message) error

func (f senderFunc) Send(ctx context.Context, msg *Message) error { return f(ctx, msg) }

func TestRenderer_Verification(t *testing.T) {
	msg := render(t)

	assert.Equal(t, sender, msg.From)
	assert.Equal(t, Address{Name: "bob", Email: "bob@example.com"}, msg.To)
	assert.Equal(t, verificationSubject, msg.Subject)
	assert.Equal(t, link, msg.Link)

	assert.Contains(t, msg.HTML, `href="`+link+`"`)
	assert.Contains(t, msg.HTML, "Hello bob,")
	assert.Contains(t, msg.HTML, "valid for 24 hours")
	assert.Contains(t, msg.Text, link)
	assert.Contains(t, msg.Text, "valid for 24 hours")
}

func TestRenderer_EscapesUsername(t *testing.T) {
	r, err := NewRenderer(24 * time.Hour)
	require.NoError(t, err)

	u := bob()
	u.Username = "<script>x</script>"
	msg, err := r.Verification(sender, u, link)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestMessage_Bytes(t *testing.T) {
	raw, err := render(t).Bytes(fixed)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	to, err := mail.ParseAddress(parsed.Header.Get("To"))
	require.NoError(t, err)
	assert.Equal(t, &mail.Address{Name: "bob", Address: "bob@example.com"}, to)
	assert.Contains(t, parsed.Header.Get("From"), "no-reply@example.com")
	assert.Equal(t, "1.0", parsed.Header.Get("MIME-Version"))
	assert.NotEmpty(t, parsed.Header.Get("Message-ID"))

	date, err := parsed.Header.Date()
	require.NoError(t, err)
	assert.True(t, fixed.Equal(date))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, verificationSubject, subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	var types []string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		partType, _, err := mime.ParseMediaType(p.Header.Get("Content-Type"))
		require.NoError(t, err)
		types = append(types, partType)
		body, err := io.ReadAll(p)
		require.NoError(t, err)
		assert.Contains(t, string(body), "token=abc123")
	}
	assert.Equal(t, []string{"text/plain", "text/html"}, types)
}

func TestMailer_WrapsFailures(t *testing.T) {
	r, err := NewRenderer(24 * time.Hour)
	require.NoError(t, err)

	var got *Message
	ok := NewMailer(sender, r, senderFunc(func(_ context.Context, msg *Message) error {
		got = msg
		return nil
	}))
	require.NoError(t, ok.SendVerification(context.Background(), bob(), link))
	require.NotNil(t, got)
	assert.Equal(t, "bob@example.com", got.To.Email)

	boom := errors.New("connection refused")
	bad := NewMailer(sender, r, senderFunc(func(context.Context, *Message) error { return boom }))
	err = bad.SendVerification(context.Background(), bob(), link)
	require.ErrorIs(t, err, common.ErrTransportFailure)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"})
	s.now = func() time.Time { return fixed }

	var got bytes.Buffer
	s.send = func(_ context.Context, cfg SMTPConfig, m *gomail.Msg) error {
		assert.Equal(t, 15*time.Second, cfg.Timeout)
		_, err := m.WriteTo(&got)
		return err
	}

	require.NoError(t, s.Send(context.Background(), render(t)))
	parsed, err := mail.ReadMessage(bytes.NewReader(got.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, parsed.Header.Get("From"), "no-reply@example.com")
	assert.Contains(t, parsed.Header.Get("To"), "bob@example.com")
	assert.Contains(t, parsed.Header.Get("Content-Type"), "multipart/alternative")

	s.send = func(context.Context, SMTPConfig, *gomail.Msg) error {
		return errors.New("535 auth failed")
	}
	err = s.Send(context.Background(), render(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestSMTPOptions_BuildClient(t *testing.T) {
	for _, cfg := range []SMTPConfig{
		{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", Timeout: time.Second},
		{Host: "smtp.example.com", Port: 465, ImplicitTLS: true, Timeout: time.Second},
	} {
		c, err := gomail.NewClient(cfg.Host, smtpOptions(cfg)...)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("smtp.example.com:%d", cfg.Port), c.ServerAddr())
	}
}

func TestSendSMTP_HonoursCancelledContext(t *testing.T) {
	m, err := render(t).toMsg(fixed)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err = sendSMTP(ctx, SMTPConfig{Host: "127.0.0.1", Port: 1, Timeout: 5 * time.Second}, m)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTPSender_NoHost(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{})
	require.Error(t, s.Send(context.Background(), render(t)))
}

type fakeSendGrid struct {
	block bool
	resp  *rest.Response
	err   error
	got   *sgmail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	f.got = email
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func TestSendGridSender_Send(t *testing.T) {
	fake := &fakeSendGrid{resp: &rest.Response{StatusCode: 202}}
	s := &SendGridSender{client: fake}

	require.NoError(t, s.Send(context.Background(), render(t)))
	require.NotNil(t, fake.got)
	assert.Equal(t, verificationSubject, fake.got.Subject)
	assert.Equal(t, "no-reply@example.com", fake.got.From.Address)
	require.Len(t, fake.got.Personalizations, 1)
	assert.Equal(t, "bob@example.com", fake.got.Personalizations[0].To[0].Address)
	require.Len(t, fake.got.Content, 2)

	fake.resp = &rest.Response{StatusCode: 401, Body: `{"errors":[{"message":"bad key"}]}`}
	err := s.Send(context.Background(), render(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	fake.err = errors.New("dial tcp: timeout")
	require.Error(t, s.Send(context.Background(), render(t)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Send(ctx, render(t)), context.Canceled)
}

func TestSendGridSender_DeadlineAbortsSend(t *testing.T) {
	fake := &fakeSendGrid{block: true}
	s := &SendGridSender{client: fake}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	msg := render(t)
	done := make(chan error, 1)
	go func() { done <- s.Send(ctx, msg) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotNil(t, fake.got)
	case <-time.After(2 * time.Second):
		t.Fatal("send did not stop at the context deadline")
	}
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Sender_Send(t *testing.T) {
	fake := &fakePutter{}
	s := &S3Sender{client: fake, bucket: "mail", now: func() time.Time { return fixed }}

	require.NoError(t, s.Send(context.Background(), render(t)))
	require.NotNil(t, fake.input)
	assert.Equal(t, "mail", aws.ToString(fake.input.Bucket))
	assert.True(t, strings.HasPrefix(aws.ToString(fake.input.Key), "mail/verification/2025-06-01/"))
	assert.True(t, strings.HasSuffix(aws.ToString(fake.input.Key), ".eml"))
	assert.Equal(t, "message/rfc822", aws.ToString(fake.input.ContentType))
	assert.Contains(t, string(fake.body), "bob@example.com")

	fake.err = errors.New("NoSuchBucket")
	require.Error(t, s.Send(context.Background(), render(t)))
}

func TestNewS3Sender_ConfiguresClient(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minio", creds.AccessKeyID)
		return aws.Config{Region: lo.Region}, nil
	}

	var opts s3.Options
	fake := &fakePutter{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fake
	}

	s, err := NewS3Sender(context.Background(), S3Config{
		AccessKey: "minio", SecretKey: "minio123", Region: "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000", Bucket: "mail",
	}, time.Now)
	require.NoError(t, err)
	assert.Same(t, fake, s.client)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}
	_, err = NewS3Sender(context.Background(), S3Config{}, time.Now)
	require.Error(t, err)
}

type recordingLogger struct {
	logging.Nop
	msgs []string
	args [][]any
}

func (r *recordingLogger) Info(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func TestLogSender(t *testing.T) {
	log := &recordingLogger{}
	require.NoError(t, NewLogSender(log).Send(context.Background(), render(t)))
	require.Len(t, log.msgs, 1)
	assert.Contains(t, log.args[0], link)
}

func TestNew_SelectsProvider(t *testing.T) {
	base := func(provider string) *config.Config {
		c := &config.Config{}
		c.LoadDefaults()
		c.MailProvider = provider
		return c
	}

	m, err := New(context.Background(), base(config.MailProviderLog), logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, m.sender)

	m, err = New(context.Background(), base(config.MailProviderSMTP), logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, m.sender)

	m, err = New(context.Background(), base(config.MailProviderSendGrid), logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &SendGridSender{}, m.sender)

	_, err = New(context.Background(), base("pigeon"), logging.Nop{})
	require.Error(t, err)
}
