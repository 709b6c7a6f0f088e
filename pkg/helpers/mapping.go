package helpers

import (
	"fmt"

	"github.com/eohue/ibookee-web-sub000/pkg/mailer"
	mailtpl "github.com/eohue/ibookee-web-sub000/pkg/mailer/templates"
)

// SubjectFor is the fallback subject when a job carries neither a subject nor
// a renderable template.
func SubjectFor(template string) string {
	switch template {
	case mailtpl.Welcome:
		return "Welcome"
	case mailtpl.AccountLinked:
		return "A new sign-in method was linked to your account"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
