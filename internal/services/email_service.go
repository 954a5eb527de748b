package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"autodealer/internal/models"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService notifies admins by mail. It implements Notifier.
type EmailService struct {
	dialer mailSender
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (s *EmailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q email: %w", subject, err)
	}
	return nil
}

func (s *EmailService) LeadAssigned(_ context.Context, admin *models.Admin, lead *models.Lead) error {
	if admin == nil || admin.Email == "" {
		return nil
	}
	body := fmt.Sprintf(`
		<h3>Вам назначен лид #%d</h3>
		<p><b>%s</b></p>
		<p>Телефон: %s<br>Email: %s</p>
		<p>Источник: %s, приоритет: %s, оценка: %d</p>
	`, lead.ID, html.EscapeString(lead.Name), html.EscapeString(orDash(lead.Phone)),
		html.EscapeString(orDash(lead.Email)), lead.Source, lead.Priority, lead.Score)

	return s.send(admin.Email, fmt.Sprintf("Новый лид #%d: %s", lead.ID, lead.Name), body)
}

func (s *EmailService) TasksCreated(_ context.Context, admin *models.Admin, lead *models.Lead, tasks []models.LeadTask) error {
	if admin == nil || admin.Email == "" || len(tasks) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>Новые задачи по лиду #%d (%s)</h3><ul>", lead.ID, html.EscapeString(lead.Name))
	for _, t := range tasks {
		due := "без срока"
		if t.DueDate != nil {
			due = t.DueDate.Format("02.01.2006 15:04")
		}
		fmt.Fprintf(&b, "<li>%s, до %s</li>", html.EscapeString(t.Title), due)
	}
	b.WriteString("</ul>")

	return s.send(admin.Email, fmt.Sprintf("Задачи по лиду #%d", lead.ID), b.String())
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
