// Package messaging builds WhatsApp deep links for customer contact.
package messaging

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pasteldream/pastel-backend/internal/app/model"
)

const waBaseURL = "https://wa.me/"

var (
	ErrNotConfigured  = errors.New("whatsapp number is not configured")
	ErrMissingMessage = errors.New("name, email and message are required")
)

type WhatsApp struct {
	number string
}

// NewWhatsApp keeps only the digits of number, the form wa.me expects.
func NewWhatsApp(number string) *WhatsApp {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return &WhatsApp{number: b.String()}
}

func (w *WhatsApp) Enabled() bool {
	return w != nil && w.number != ""
}

// Link returns https://wa.me/<number>?text=<text>.
func (w *WhatsApp) Link(text string) (string, error) {
	if !w.Enabled() {
		return "", ErrNotConfigured
	}
	return waBaseURL + w.number + "?text=" + url.QueryEscape(text), nil
}

func SellerMessage(p *model.Product) string {
	return fmt.Sprintf("Hey, I want to know about %s - %s - Rs. %s", p.Name, p.Category, p.Price.StringFixed(2))
}

func ContactMessage(name, email, message string) string {
	return fmt.Sprintf("Hi, I am %s, my mailId is %s. My message for you is: %s", name, email, message)
}

// SellerLink opens a chat asking about product.
func (w *WhatsApp) SellerLink(p *model.Product) (string, error) {
	return w.Link(SellerMessage(p))
}

// ContactLink opens a chat carrying a contact-form message.
func (w *WhatsApp) ContactLink(name, email, message string) (string, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(message) == "" {
		return "", ErrMissingMessage
	}
	return w.Link(ContactMessage(name, email, message))
}
