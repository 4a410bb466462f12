// internal/whatsapp/link.go
package whatsapp

import (
	"fmt"
	"net/url"

	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/quote"
)

// messageTemplate is interpolated with the visitor's name, tax id and email.
const messageTemplate = "Olá! Acabei de enviar uma cotação pelo site.\nNome: %s\nCPF/CNPJ: %s\nE-mail: %s"

// LinkBuilder maps a consultant name to a WhatsApp phone number and builds
// the pre-filled wa.me conversation link shown after a successful
// submission. An unmapped consultant falls back to the default number
// instead of failing; the substitution is logged for follow-up.
type LinkBuilder struct {
	phones       map[string]string
	defaultPhone string
	logger       logger.Logger
}

func NewLinkBuilder(phones map[string]string, defaultPhone string, log logger.Logger) *LinkBuilder {
	return &LinkBuilder{
		phones:       phones,
		defaultPhone: defaultPhone,
		logger:       log.WithFields(map[string]interface{}{"component": "whatsapp-links"}),
	}
}

func (b *LinkBuilder) Link(q *quote.Quote) string {
	phone, ok := b.phones[q.Seller]
	if !ok || phone == "" {
		b.logger.Warn("consultant has no mapped phone, using default", map[string]interface{}{
			"seller":  q.Seller,
			"quoteId": q.ID,
		})
		phone = b.defaultPhone
	}

	message := fmt.Sprintf(messageTemplate, q.Contact.FullName, q.Contact.Document, q.Contact.Email)
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}
