package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"tritonthenix/clients/sendgrid"
	"tritonthenix/schedule"
	"tritonthenix/services/event"
	"tritonthenix/services/session"
	"tritonthenix/set"
)

var (
	ErrNotConfigured = errors.New("mail delivery is not configured")
	ErrBlankMessage  = errors.New("subject and content are required")
	ErrNoRecipients  = errors.New("event has no attendees")
	ErrDelivery      = errors.New("failed to deliver email")
)

const (
	DefaultFromEmail = "events@tritonthenix.com"
	DefaultFromName  = "TritonThenix Events"

	maxConcurrentBatches = 4
)

// Events is the slice of the event service that mail needs.
type Events interface {
	Get(ctx context.Context, id string) (*schedule.Event, error)
}

type Message struct {
	Subject string
	Content string
}

type Service interface {
	// SendToAttendees emails every current attendee of the event. Each
	// recipient gets their own copy; attendees never see each other. On
	// ErrDelivery the count is how many recipients were already sent to.
	SendToAttendees(ctx context.Context, sess *session.Session, eventID string, msg Message) (int, error)
}

type service struct {
	events Events
	client sendgrid.Client
	from   sendgrid.Address
	md     goldmark.Markdown
}

var _ Service = (*service)(nil)

// NewService builds the mailer. A nil client leaves mail unconfigured and
// every send fails with ErrNotConfigured.
func NewService(events Events, client sendgrid.Client, from sendgrid.Address) Service {
	if from.Email == "" {
		from = sendgrid.Address{Email: DefaultFromEmail, Name: DefaultFromName}
	}
	return &service{
		events: events,
		client: client,
		from:   from,
		md:     goldmark.New(),
	}
}

func (s *service) SendToAttendees(ctx context.Context, sess *session.Session, eventID string, msg Message) (int, error) {
	if sess == nil {
		return 0, event.ErrUnauthenticated
	}
	if !sess.IsAdmin {
		return 0, event.ErrForbidden
	}
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Subject == "" || msg.Content == "" {
		return 0, ErrBlankMessage
	}
	if s.client == nil {
		return 0, ErrNotConfigured
	}
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return 0, err
	}
	recipients := set.FromSlice(e.Attendees).ToSlice()
	if len(recipients) == 0 {
		return 0, ErrNoRecipients
	}

	htmlBody, err := s.renderHTML(msg.Content, e, sess.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to render email: %w", err)
	}
	content := []sendgrid.Content{
		{Type: "text/plain", Value: renderText(msg.Content, e, sess.Name)},
		{Type: "text/html", Value: htmlBody},
	}

	var delivered atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for _, batch := range batches(recipients, sendgrid.MaxPersonalizations) {
		g.Go(func() error {
			err := s.client.Send(gctx, sendgrid.Message{
				Personalizations: batch,
				From:             s.from,
				Subject:          msg.Subject,
				Content:          content,
			})
			if err == nil {
				delivered.Add(int64(len(batch)))
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		n := int(delivered.Load())
		log.Error().Err(err).Str("event", e.ID).Int("recipients", len(recipients)).Int("delivered", n).Msg("failed to send attendee email")
		return n, fmt.Errorf("%w: delivered to %d of %d recipients: %w", ErrDelivery, n, len(recipients), err)
	}
	log.Info().Str("event", e.ID).Int("recipients", len(recipients)).Str("by", sess.Email).Msg("attendee email sent")
	return len(recipients), nil
}

func batches(recipients []string, size int) [][]sendgrid.Personalization {
	var out [][]sendgrid.Personalization
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		batch := make([]sendgrid.Personalization, 0, end-start)
		for _, r := range recipients[start:end] {
			batch = append(batch, sendgrid.Personalization{To: []sendgrid.Address{{Email: r}}})
		}
		out = append(out, batch)
	}
	return out
}

func (s *service) renderHTML(content string, e *schedule.Event, sender string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<div>\n")
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	fmt.Fprintf(&buf, "<br/>\n<p><strong>Event Details:</strong></p>\n<p>Name: %s</p>\n<p>Date: %s</p>\n<p>Time: %s</p>\n<p>Sent by: %s</p>\n</div>\n",
		html.EscapeString(e.Name),
		html.EscapeString(e.Date),
		html.EscapeString(e.Time),
		html.EscapeString(sender),
	)
	return buf.String(), nil
}

func renderText(content string, e *schedule.Event, sender string) string {
	return fmt.Sprintf("%s\n\nEvent Details:\nName: %s\nDate: %s\nTime: %s\nSent by: %s\n", content, e.Name, e.Date, e.Time, sender)
}
