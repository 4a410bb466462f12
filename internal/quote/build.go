// internal/quote/build.go
package quote

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/validation"
	"seguros-cotacoes/internal/formatter"
)

// Build validates a candidate value map against the product spec and, on
// acceptance, returns a normalized Quote: tax identifier and phone formatted,
// currency fields converted to numbers, id and timestamps assigned. On
// rejection it returns a VALIDATION_FAILED error carrying the field→message
// map, and nothing else happens (no network, no storage).
func (c *Catalog) Build(spec *ProductSpec, values map[string]interface{}, dependents []Dependent) (*Quote, error) {
	merged := validation.Schema{
		Fields:   make(map[string]validation.Field),
		Required: make([]string, 0, len(c.contact.Required)+len(spec.Required)),
	}
	for name, f := range c.contact.Fields {
		merged.Fields[name] = f
	}
	if spec.HasAddress {
		for name, f := range c.address.Fields {
			merged.Fields[name] = f
		}
	}
	for name, f := range spec.Fields {
		merged.Fields[name] = f
	}
	merged.Required = append(merged.Required, c.contact.Required...)
	merged.Required = append(merged.Required, spec.Required...)

	result := validation.Validate(values, merged, spec.Rules...)

	if spec.HasDependents {
		validateDependents(result, dependents)
	} else if len(dependents) > 0 {
		result.Add("dependents", "Produto não aceita dependentes")
	}

	if !result.Valid() {
		return nil, errors.NewValidationFailedError(result.Errors)
	}

	now := time.Now().UTC()
	q := &Quote{
		ID:      uuid.New().String(),
		Product: spec.Product,
		Contact: Contact{
			FullName: str(values["full_name"]),
			Document: formatter.Document(str(values["document_number"])),
			Email:    str(values["email"]),
			Phone:    formatter.Phone(str(values["phone"])),
		},
		Seller:    str(values["seller"]),
		Status:    StatusPending,
		Details:   make(map[string]interface{}, len(spec.DetailColumns)),
		CreatedAt: now,
	}

	if spec.HasAddress {
		if addr := buildAddress(values); addr != nil {
			q.Address = addr
		}
	}

	for _, name := range spec.DetailColumns {
		value, exists := values[name]
		if !exists || value == nil {
			continue
		}
		if spec.Fields[name].Type == "currency" {
			q.Details[name] = currencyValue(value)
			continue
		}
		q.Details[name] = value
	}

	for _, d := range dependents {
		q.Dependents = append(q.Dependents, Dependent{
			Name:      d.Name,
			Document:  formatter.Document(d.Document),
			BirthDate: d.BirthDate,
			Age:       AgeAt(d.BirthDate, now),
		})
	}

	return q, nil
}

func validateDependents(result *validation.Result, dependents []Dependent) {
	for i, d := range dependents {
		prefix := "dependents[" + strconv.Itoa(i) + "]."
		if d.Name == "" {
			result.Add(prefix+"name", "Campo obrigatório")
		}
		if n := len(validation.Digits(d.Document)); n != 11 {
			result.Add(prefix+"document_number", "CPF deve conter 11 dígitos")
		}
		if _, err := time.Parse("2006-01-02", d.BirthDate); err != nil {
			result.Add(prefix+"birth_date", "Data inválida")
		}
	}
}

func buildAddress(values map[string]interface{}) *Address {
	addr := &Address{
		CEP:          formatter.CEP(str(values["cep"])),
		Street:       str(values["street"]),
		Number:       str(values["number"]),
		Complement:   str(values["complement"]),
		Neighborhood: str(values["neighborhood"]),
		City:         str(values["city"]),
		State:        str(values["state"]),
	}
	if addr.CEP == "" && addr.Street == "" && addr.City == "" {
		return nil
	}
	return addr
}

// currencyValue returns a float64 for display strings, passing numeric input
// through. Empty display strings become nil ("not informed").
func currencyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		n, ok := formatter.CurrencyValue(v)
		if !ok {
			return nil
		}
		return n
	case float64:
		return v
	case int:
		return float64(v)
	}
	return value
}

func str(value interface{}) string {
	s, _ := value.(string)
	return s
}

