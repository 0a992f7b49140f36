package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strings"

	"print-store/internal/client"
	"print-store/internal/dto"

	"go.uber.org/zap"
)

const (
	contactSentMessage     = "Message sent successfully! Thank you for reaching out."
	contactDisabledMessage = "Form submitted (email sending disabled server-side)."
)

var contactTemplate = template.Must(template.New("contact").Parse(`<p>You have a new contact form submission:</p>
<ul><li><strong>Name:</strong> {{.Name}}</li><li><strong>Email:</strong> {{.Email}}</li></ul>
<p><strong>Message:</strong></p>
<p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>`))

type ContactService interface {
	// Submit forwards a visitor's message to the site owner, replying to the visitor.
	Submit(ctx context.Context, req *dto.ContactRequest) (*dto.ContactResponse, error)
}

type contactServiceImpl struct {
	log        *zap.Logger
	mailer     client.Mailer
	ownerEmail string
}

func NewContactService(log *zap.Logger, mailer client.Mailer, ownerEmail string) ContactService {
	return &contactServiceImpl{
		log:        log,
		mailer:     mailer,
		ownerEmail: strings.TrimSpace(ownerEmail),
	}
}

func (s *contactServiceImpl) Submit(ctx context.Context, req *dto.ContactRequest) (*dto.ContactResponse, error) {
	if req == nil {
		return nil, newValidationError("", "request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// the template escapes on render, so undo the sanitizer's entity encoding
	name := html.UnescapeString(cleanText(req.Name))
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	message := html.UnescapeString(cleanText(req.Message))
	if message == "" {
		return nil, newValidationError("message", "is required")
	}
	email := strings.TrimSpace(req.Email)

	if s.ownerEmail == "" {
		s.log.Warn("contact owner address not configured, dropping submission", zap.String("from", email))
		return &dto.ContactResponse{Message: contactDisabledMessage}, nil
	}

	var body bytes.Buffer
	err := contactTemplate.Execute(&body, struct {
		Name  string
		Email string
		Lines []string
	}{
		Name:  name,
		Email: email,
		Lines: strings.Split(message, "\n"),
	})
	if err != nil {
		return nil, fmt.Errorf("render contact body: %w", err)
	}

	err = s.mailer.Send(ctx, &client.MailMessage{
		To:      s.ownerEmail,
		ReplyTo: email,
		Subject: "New Contact Form Submission from " + name,
		HTML:    body.String(),
	})
	if err != nil {
		return nil, &ExternalServiceError{Service: "mail transport", Err: err}
	}

	s.log.Info("contact message forwarded", zap.String("from", email))
	return &dto.ContactResponse{Message: contactSentMessage}, nil
}
