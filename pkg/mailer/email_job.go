package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// A job either names a Template (rendered by the worker from Data) or carries
// a ready Subject/Text/HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome", "account_linked"
	Data     map[string]any `json:"data,omitempty"`
}
