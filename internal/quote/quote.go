// Package quote implements the submission pipeline shared by every insurance
// product: schema validation, normalization, persistence, notification and
// the WhatsApp follow-up link.
package quote

import (
	"time"
)

// Product identifies one insurance product line.
type Product string

const (
	ProductAuto       Product = "auto"
	ProductHome       Product = "home"
	ProductLife       Product = "life"
	ProductHealth     Product = "health"
	ProductTravel     Product = "travel"
	ProductBusiness   Product = "business"
	ProductCivilWorks Product = "civil-works"
	ProductBond       Product = "bond"
)

// StatusPending is the decorative status every quote is created with. No code
// in this service ever transitions it; triage happens downstream.
const StatusPending = "pendente"

// Contact is the block required on every product's form.
type Contact struct {
	FullName string `json:"full_name"`
	Document string `json:"document_number"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Address is the optional block filled manually or by the CEP lookup.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Dependent is a child record of a health quote.
type Dependent struct {
	Name      string `json:"name"`
	Document  string `json:"document_number"`
	BirthDate string `json:"birth_date"`
	Age       int    `json:"age"`
}

// Quote is one validated, normalized lead record, immutable once created.
type Quote struct {
	ID             string
	Product        Product
	Contact        Contact
	Address        *Address
	Details        map[string]interface{}
	Dependents     []Dependent
	Seller         string
	Status         string
	AttachmentPath string
	CreatedAt      time.Time
}

// Attachment is an optional in-memory policy file handed in with the form.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Receipt is what the submitter reports back to the HTTP layer. Success is
// true whenever the row was persisted, even if secondary steps failed;
// Warnings carries those secondary failures.
type Receipt struct {
	Success      bool     `json:"success"`
	QuoteID      string   `json:"quote_id"`
	CreatedAt    string   `json:"created_at"`
	Warnings     []string `json:"warnings,omitempty"`
	WhatsAppLink string   `json:"whatsapp_link"`
}

// AgeAt derives a dependent's age from an ISO birth date at the given moment.
func AgeAt(birthDate string, now time.Time) int {
	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return 0
	}
	age := now.Year() - born.Year()
	if now.YearDay() < born.YearDay() {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}
