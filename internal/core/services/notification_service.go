package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/metrics"
	"loanportal/internal/pkg/validation"

	"github.com/sirupsen/logrus"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
)

// Mailer delivers one email. Implementations: SMTP and console.
type Mailer interface {
	Send(ctx context.Context, msg *domain.EmailMessage) error
}

// NotificationService composes transactional emails and hands them to the
// configured transport
type NotificationService struct {
	primary  Mailer
	fallback Mailer
	cfg      *config.Config
	log      logrus.FieldLogger
}

// NewNotificationService creates a new notification service. fallback is
// only used in development mode and may be nil.
func NewNotificationService(primary, fallback Mailer, cfg *config.Config, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		log:      log,
	}
}

// InviteInput represents the invitation form
type InviteInput struct {
	InviterName      string `json:"inviter_name" form:"inviter_name" validate:"max=120"`
	RecipientName    string `json:"recipient_name" form:"recipient_name" validate:"required,max=120"`
	RecipientEmail   string `json:"recipient_email" form:"recipient_email" validate:"required,email,max=254"`
	PersonalizedNote string `json:"personalized_note" form:"personalized_note" validate:"max=2000"`
	ContactURL       string `json:"contact_url" form:"contact_url" validate:"omitempty,url,max=500"`
}

type verifyEmailData struct {
	Name      string
	OrgName   string
	BannerURL string
	Link      string
	ExpiresIn string
}

type inviteData struct {
	InviterName      string
	RecipientName    string
	PersonalizedNote string
	RegisterURL      string
	ContactURL       string
	OrgName          string
	BannerURL        string
}

// SendVerificationEmail sends the account activation link
func (s *NotificationService) SendVerificationEmail(ctx context.Context, user *models.User, link string) error {
	data := verifyEmailData{
		Name:      user.FullName,
		OrgName:   s.cfg.Site.OrgDisplayName,
		BannerURL: s.cfg.Site.InviteBannerURL,
		Link:      link,
		ExpiresIn: humanDuration(s.cfg.VerifyTokenTTL),
	}

	msg, err := render("verify_email", data)
	if err != nil {
		return err
	}
	msg.To = []string{user.Email}
	msg.Subject = fmt.Sprintf("Verify your email for %s", s.cfg.Site.OrgDisplayName)

	return s.deliver(ctx, "verify_email", msg)
}

// SendInvite emails a registration invitation. Staff only; nothing is stored.
func (s *NotificationService) SendInvite(ctx context.Context, principal *domain.Principal, input *InviteInput, registerURL string) error {
	if !principal.IsStaff() {
		return domain.ErrPermissionDenied
	}

	input.InviterName = strings.TrimSpace(input.InviterName)
	input.RecipientName = strings.TrimSpace(input.RecipientName)
	input.RecipientEmail = strings.ToLower(strings.TrimSpace(input.RecipientEmail))
	input.PersonalizedNote = strings.TrimSpace(input.PersonalizedNote)
	input.ContactURL = strings.TrimSpace(input.ContactURL)

	if fields := validation.Struct(input); fields != nil {
		verr := domain.NewValidationError()
		verr.Merge(fields)
		return verr
	}

	inviter := input.InviterName
	if inviter == "" {
		inviter = s.cfg.Site.InviteSenderName
	}

	data := inviteData{
		InviterName:      inviter,
		RecipientName:    input.RecipientName,
		PersonalizedNote: input.PersonalizedNote,
		RegisterURL:      registerURL,
		ContactURL:       input.ContactURL,
		OrgName:          s.cfg.Site.OrgDisplayName,
		BannerURL:        s.cfg.Site.InviteBannerURL,
	}

	msg, err := render("invite", data)
	if err != nil {
		return err
	}
	msg.To = []string{input.RecipientEmail}
	msg.Subject = fmt.Sprintf("%s invited you to apply for financing", inviter)

	if err := s.deliver(ctx, "invite", msg); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"admin_id":  principal.UserID,
		"recipient": input.RecipientEmail,
	}).Info("📨 Invitation sent")
	return nil
}

// deliver tries the primary transport. In development a failure is retried
// once on the console transport so the message can still be inspected.
func (s *NotificationService) deliver(ctx context.Context, kind string, msg *domain.EmailMessage) error {
	entry := s.log.WithFields(logrus.Fields{
		"kind": kind,
		"to":   strings.Join(msg.To, ","),
	})

	err := s.primary.Send(ctx, msg)
	if err == nil {
		metrics.RecordEmail(kind, "sent")
		return nil
	}
	entry.WithError(err).Error("❌ Email delivery failed")

	if s.cfg.IsDev() && s.fallback != nil {
		fbErr := s.fallback.Send(ctx, msg)
		if fbErr == nil {
			entry.Warn("⚠️ Email written to console fallback")
			metrics.RecordEmail(kind, "fallback")
			return nil
		}
		entry.WithError(fbErr).Error("❌ Console fallback failed")
	}

	metrics.RecordEmail(kind, "failed")
	return domain.ErrDeliveryFailed
}

func render(name string, data interface{}) (*domain.EmailMessage, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", name, err)
	}
	return &domain.EmailMessage{Text: text.String(), HTML: html.String()}, nil
}

func humanDuration(d time.Duration) string {
	hours := int(d.Hours())
	switch {
	case hours >= 48 && hours%24 == 0:
		return fmt.Sprintf("%d days", hours/24)
	case hours == 1:
		return "1 hour"
	default:
		return fmt.Sprintf("%d hours", hours)
	}
}
