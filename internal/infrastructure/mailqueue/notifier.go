// Package mailqueue hands user notifications to the email worker through
// RabbitMQ and implements the worker side of the queue.
package mailqueue

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/config"
	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/mailer"
	mailtpl "github.com/eohue/ibookee-web-sub000/pkg/mailer/templates"
)

const publishTimeout = 3 * time.Second

// Publisher is satisfied by *helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Notifier struct {
	pub    Publisher
	cfg    *config.Config
	logger *logrus.Logger
	now    func() time.Time
}

func NewNotifier(pub Publisher, cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{pub: pub, cfg: cfg, logger: logger, now: time.Now}
}

func (n *Notifier) Welcome(ctx context.Context, u *entity.User) {
	if u.Email == "" {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(n.cfg, displayName(u), u.Email),
	}, u.ID)
}

// AccountLinked tells the account owner that a provider can now sign in to it.
func (n *Notifier) AccountLinked(ctx context.Context, u *entity.User, p entity.Provider) {
	if u.Email == "" {
		return
	}
	info := helpers.ClientInfoFrom(ctx)
	n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.AccountLinked,
		Data: mailtpl.NewAccountLinkedData(n.cfg, displayName(u), u.Email, string(p),
			mailtpl.WithIP(info.IP),
			mailtpl.WithUserAgent(info.UserAgent),
			mailtpl.WithTime(n.now()),
		),
	}, u.ID)
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob, userID string) {
	c, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.pub.PublishJSON(c, job); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID,
			"template": job.Template,
		}).Warn("failed to enqueue email")
	}
}

func displayName(u *entity.User) string {
	if s := strings.TrimSpace(u.FirstName + " " + u.LastName); s != "" {
		return s
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.RealName
}

var _ application.Notifier = (*Notifier)(nil)
