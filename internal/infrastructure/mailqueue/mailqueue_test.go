package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eohue/ibookee-web-sub000/config"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/mailer"
	mailtpl "github.com/eohue/ibookee-web-sub000/pkg/mailer/templates"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishJSON(ctx context.Context, body any) error {
	return m.Called(ctx, body).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, to, subject, text, html string) error {
	return m.Called(ctx, to, subject, text, html).Error(0)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{AppName: "ibookee", CompanyName: "IBOOKEE"}
}

func TestNotifier_Welcome(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.MatchedBy(func(job mailer.EmailJob) bool {
		return job.To == "jane@example.com" && job.Template == mailtpl.Welcome && job.Data["Name"] == "jane"
	})).Return(nil).Once()

	n := NewNotifier(pub, testConfig(), quietLogger())
	n.Welcome(context.Background(), &entity.User{ID: "u-1", Email: "jane@example.com", Nickname: "jane"})

	pub.AssertExpectations(t)
}

func TestNotifier_SkipsUsersWithoutEmail(t *testing.T) {
	pub := &mockPublisher{}
	n := NewNotifier(pub, testConfig(), quietLogger())

	n.Welcome(context.Background(), &entity.User{ID: "u-1"})
	n.AccountLinked(context.Background(), &entity.User{ID: "u-1"}, entity.ProviderKakao)

	pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
}

func TestNotifier_AccountLinkedCarriesClientInfo(t *testing.T) {
	pub := &mockPublisher{}
	var got mailer.EmailJob
	pub.On("PublishJSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(mailer.EmailJob)
	}).Return(nil).Once()

	n := NewNotifier(pub, testConfig(), quietLogger())
	n.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := helpers.WithClientInfo(context.Background(), helpers.ClientInfo{IP: "203.0.113.9", UserAgent: "Firefox"})

	n.AccountLinked(ctx, &entity.User{ID: "u-1", Email: "boss@example.com", FirstName: "Boss"}, entity.ProviderNaver)

	assert.Equal(t, mailtpl.AccountLinked, got.Template)
	assert.Equal(t, "naver", got.Data["Provider"])
	assert.Equal(t, "203.0.113.9", got.Data["IP"])
	assert.Equal(t, "Firefox", got.Data["UserAgent"])
	assert.Equal(t, "Boss", got.Data["Name"])
}

func TestNotifier_PublishFailureIsSwallowed(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

	n := NewNotifier(pub, testConfig(), quietLogger())
	assert.NotPanics(t, func() {
		n.Welcome(context.Background(), &entity.User{ID: "u-1", Email: "a@example.com"})
	})
	pub.AssertExpectations(t)
}

func jobBody(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestWorker_RendersTemplate(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, "jane@example.com", "Welcome to ibookee",
		mock.MatchedBy(func(text string) bool { return text != "" }),
		mock.MatchedBy(func(html string) bool { return html != "" }),
	).Return(nil).Once()

	w := &Worker{Sender: sender, Logger: quietLogger()}
	job := mailer.EmailJob{To: "jane@example.com", Template: mailtpl.Welcome, Data: mailtpl.NewWelcomeData(testConfig(), "Jane", "jane@example.com")}

	require.NoError(t, w.Handle(context.Background(), jobBody(t, job)))
	sender.AssertExpectations(t)
}

func TestWorker_RawJobUsesFallbackSubject(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, "a@example.com", "Notification", "hello", "").Return(nil).Once()

	w := &Worker{Sender: sender, Logger: quietLogger()}
	require.NoError(t, w.Handle(context.Background(), jobBody(t, mailer.EmailJob{To: "a@example.com", Text: "hello"})))
	sender.AssertExpectations(t)
}

func TestWorker_PermanentFailures(t *testing.T) {
	w := &Worker{Sender: &mockSender{}, Logger: quietLogger()}

	for name, body := range map[string][]byte{
		"bad json":         []byte("{"),
		"no recipient":     jobBody(t, mailer.EmailJob{Template: mailtpl.Welcome}),
		"unknown template": jobBody(t, mailer.EmailJob{To: "a@example.com", Template: "login_otp"}),
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, w.Handle(context.Background(), body), ErrPermanent)
		})
	}
}

func TestWorker_SendFailureIsRetryable(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mailgun 503")).Once()

	w := &Worker{Sender: sender, Logger: quietLogger()}
	err := w.Handle(context.Background(), jobBody(t, mailer.EmailJob{To: "a@example.com", Text: "x", Subject: "s"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermanent)
}
