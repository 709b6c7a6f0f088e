package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/mailer"
	mailtpl "github.com/eohue/ibookee-web-sub000/pkg/mailer/templates"
)

// ErrPermanent marks a job that will never succeed and must not be requeued.
var ErrPermanent = errors.New("permanent email job failure")

// Worker renders and sends queued email jobs.
type Worker struct {
	Sender mailer.Sender
	Geo    mailtpl.GeoResolver
	Logger *logrus.Logger
}

// Handle processes one message body. A returned error wrapping ErrPermanent
// means drop the message; any other error means retry it later.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode job: %v", ErrPermanent, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: job without recipient", ErrPermanent)
	}
	helpers.EnsureRecipientAndEmail(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !mailtpl.Known(job.Template) {
			return fmt.Errorf("%w: unknown template %q", ErrPermanent, job.Template)
		}
		if w.Geo != nil {
			helpers.LocalizeTimesIfPossible(ctx, w.Geo, job.Data)
		}
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrPermanent, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	if subject == "" {
		subject = helpers.SubjectFor(job.Template)
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	w.Logger.WithFields(logrus.Fields{"template": job.Template}).Info("email sent")
	return nil
}
