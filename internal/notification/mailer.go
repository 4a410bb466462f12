// internal/notification/mailer.go
package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	appErrors "seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/quote"
)

// SESService is the slice of the SES client the mailer needs.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error)
}

// Mailer sends the per-submission notification to the fixed operations
// mailbox. Sender and recipient never vary; the visitor's address goes on
// Reply-To so the consultant answers the lead directly. There is no retry:
// the caller downgrades a send failure to a warning.
type Mailer struct {
	ses    SESService
	from   string
	to     string
	logger logger.Logger
}

func NewMailer(svc SESService, from, to string, log logger.Logger) *Mailer {
	return &Mailer{
		ses:    svc,
		from:   from,
		to:     to,
		logger: log.WithFields(map[string]interface{}{"component": "notification-mailer"}),
	}
}

func (m *Mailer) Send(ctx context.Context, spec *quote.ProductSpec, q *quote.Quote, att *quote.Attachment) error {
	subject, body, err := Render(spec, q)
	if err != nil {
		return appErrors.NewNotificationSendFailedError(err)
	}

	if att == nil {
		err = m.sendSimple(ctx, subject, body, q.Contact.Email)
	} else {
		err = m.sendWithAttachment(ctx, subject, body, q.Contact.Email, att)
	}
	if err != nil {
		m.logger.Error("notification send failed", map[string]interface{}{
			"error":   err.Error(),
			"quoteId": q.ID,
			"subject": subject,
		})
		return appErrors.NewNotificationSendFailedError(err)
	}

	m.logger.Info("notification sent", map[string]interface{}{
		"quoteId":       q.ID,
		"product":       string(spec.Product),
		"hasAttachment": att != nil,
	})
	return nil
}

func (m *Mailer) sendSimple(ctx context.Context, subject, body, replyTo string) error {
	_, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:           aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{m.to}},
		ReplyToAddresses: []string{replyTo},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	return err
}

// sendWithAttachment builds a multipart/mixed MIME message; the SES simple
// send API has no attachment support. Every interpolated header value passes
// through headerValue first: the subject and filename carry visitor input,
// and a CR/LF there would otherwise let a form field smuggle extra headers
// into the message.
func (m *Mailer) sendWithAttachment(ctx context.Context, subject, body, replyTo string, att *quote.Attachment) error {
	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", headerValue(m.from)))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", headerValue(m.to)))
	msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", headerValue(replyTo)))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", headerValue(subject))))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary()))
	msg.WriteString("\r\n")

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return err
	}
	if _, err := htmlPart.Write([]byte(body)); err != nil {
		return err
	}

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	attPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {headerValue(contentType)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", headerValue(att.Filename))},
	})
	if err != nil {
		return err
	}
	if _, err := attPart.Write([]byte(base64.StdEncoding.EncodeToString(att.Data))); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	msg.WriteString(parts.String())

	_, err = m.ses.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.from),
		Destinations: []string{m.to},
		RawMessage:   &types.RawMessage{Data: []byte(msg.String())},
	})
	return err
}

// headerValue strips CR, LF and double quotes so a single form value can
// never terminate or fork a MIME header line.
func headerValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '"':
			return -1
		}
		return r
	}, s)
}
