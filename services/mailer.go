package services

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"nutriguide/models"
)

// Mailer sends transactional email through SendGrid. Everything here is
// best effort: missing configuration or upstream failures are logged and
// never bubble into request handling.
type Mailer struct {
	apiKey    string
	fromEmail string
}

func NewMailer() *Mailer {
	return &Mailer{
		apiKey:    os.Getenv("SENDGRID_API_KEY"),
		fromEmail: os.Getenv("MAIL_FROM"),
	}
}

func (m *Mailer) send(toName, toEmail, subject, body string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("mailer panic recovered: %v", r)
		}
	}()

	if m.apiKey == "" || m.fromEmail == "" {
		log.Println("mail skipped: SendGrid not configured")
		return
	}

	from := mail.NewEmail("NutriGuide", m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, body)
	client := sendgrid.NewSendClient(m.apiKey)

	response, err := client.Send(message)
	if err != nil {
		log.Printf("error sending mail to %s: %v", toEmail, err)
		return
	}
	log.Printf("mail sent to %s, status %d", toEmail, response.StatusCode)
}

func (m *Mailer) SendWelcome(u *models.User) {
	body := fmt.Sprintf(`Hi %s,

Welcome to NutriGuide! Your %s account is ready.

Browse recipes, save your favourites and plan your meals for the week.`,
		displayName(u), u.Tier)
	m.send(displayName(u), u.Email, "Welcome to NutriGuide", body)
}

func (m *Mailer) SendSubscriptionExpired(u *models.User) {
	body := fmt.Sprintf(`Hi %s,

Your NutriGuide premium subscription has ended. Premium features such as
AI recommendations and unlimited saved recipes are now paused.

Renew from your profile page to pick up where you left off.`,
		displayName(u))
	m.send(displayName(u), u.Email, "Your NutriGuide subscription has expired", body)
}

func displayName(u *models.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
