package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"go.uber.org/zap"
)

// MailSender is the transport slice of the gomail adapter the dispatcher
// depends on.
type MailSender interface {
	Send(to, subject, htmlBody string) error
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
<p>Hello {{.Name}},</p>
<p>{{len .Announces}} new announce(s) match your subscriptions:</p>
<ul>
{{range .Announces}}<li><a href="{{.URL}}">{{.Title}}</a>{{if gt .Price 0.0}} &mdash; {{printf "%.2f" .Price}}{{end}}</li>
{{end}}</ul>
</body>
</html>`))

// MailDispatcher renders one digest per subscriber and sends it through the
// mail transport.
type MailDispatcher struct {
	users   repository.UserDirectory
	sender  MailSender
	subject string
	logger  *zap.Logger
}

func NewMailDispatcher(users repository.UserDirectory, sender MailSender, subject string, logger *zap.Logger) *MailDispatcher {
	if subject == "" {
		subject = "New announces matching your subscriptions"
	}
	return &MailDispatcher{users: users, sender: sender, subject: subject, logger: logger}
}

// Notify sends a single digest. When the subscriber has no profile record the
// raw subscriber id is used as the address, best effort and unvalidated.
func (m *MailDispatcher) Notify(ctx context.Context, subscriberID string, announces []*entity.Announce) error {
	if len(announces) == 0 {
		return nil
	}

	address := subscriberID
	name := subscriberID
	user, err := m.users.GetByID(ctx, subscriberID)
	switch {
	case err == nil:
		if user.Email != "" {
			address = user.Email
		}
		if user.DisplayName != "" {
			name = user.DisplayName
		}
	case errors.Is(err, repository.ErrNotFound):
		m.logger.Warn("Subscriber has no profile, using raw id as address",
			zap.String("subscriber_id", subscriberID))
	default:
		return fmt.Errorf("MailDispatcher.Notify: failed to resolve subscriber %s: %w", subscriberID, err)
	}

	// Stable ordering inside the digest; the differ hands us a map-derived
	// slice.
	sorted := make([]*entity.Announce, len(announces))
	copy(sorted, announces)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	var body bytes.Buffer
	err = digestTemplate.Execute(&body, struct {
		Name      string
		Announces []*entity.Announce
	}{Name: name, Announces: sorted})
	if err != nil {
		return fmt.Errorf("MailDispatcher.Notify: failed to render digest: %w", err)
	}

	if err := m.sender.Send(address, m.subject, body.String()); err != nil {
		return fmt.Errorf("MailDispatcher.Notify: failed to send digest to %s: %w", address, err)
	}

	m.logger.Info("Digest sent",
		zap.String("subscriber_id", subscriberID),
		zap.Int("announces", len(sorted)),
	)
	return nil
}
