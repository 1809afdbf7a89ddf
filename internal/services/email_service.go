package services

import (
	"fmt"
	"os"

	"learnhub/internal/models"
	"learnhub/internal/notification"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gorm.io/gorm"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendWelcomeEmail greets a newly registered learner
func (s *EmailService) SendWelcomeEmail(userEmail, userName string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(userName, userEmail)
	subject := "Welcome to LearnHub"
	plainContent := fmt.Sprintf("Hello %s, your LearnHub account is ready. Plan your first study session from your dashboard.", userName)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your LearnHub account is ready. Plan your first study session from your dashboard.</p>", userName)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	_, err := s.client.Send(message)
	return err
}

// SendSessionReminder emails a learner about an imminent study session
func (s *EmailService) SendSessionReminder(userEmail, userName, sessionTitle, moduleTitle string, minutesUntil int) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(userName, userEmail)
	subject := fmt.Sprintf("Reminder: %s starts in %d minutes", sessionTitle, minutesUntil)

	context := sessionTitle
	if moduleTitle != "" {
		context = fmt.Sprintf("%s (%s)", sessionTitle, moduleTitle)
	}
	plainContent := fmt.Sprintf("Hello %s, Your study session %s starts in %d minutes. Don't miss it!",
		userName, context, minutesUntil)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your study session <strong>%s</strong> starts in %d minutes.</p><p>Don't miss it!</p>",
		userName, context, minutesUntil)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", userEmail, response.StatusCode)
	}
	return nil
}

// ReminderMailer adapts EmailService to the dispatcher's Mailer interface,
// resolving the recipient address from the account table.
type ReminderMailer struct {
	db    *gorm.DB
	email *EmailService
}

func NewReminderMailer(db *gorm.DB, email *EmailService) *ReminderMailer {
	return &ReminderMailer{db: db, email: email}
}

// SendEventReminder implements notification.Mailer
func (m *ReminderMailer) SendEventReminder(ev notification.UpcomingEvent, minutesUntil int) error {
	var account models.Account
	if err := m.db.Where("username = ?", ev.Username).First(&account).Error; err != nil {
		return fmt.Errorf("failed to look up account %s: %w", ev.Username, err)
	}
	return m.email.SendSessionReminder(account.Email, account.Username, ev.Title, ev.ModuleTitle, minutesUntil)
}
