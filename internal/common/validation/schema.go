// Package validation implements the declarative field-spec engine shared by
// every quote form. Error messages are in Portuguese, matching the audience
// of the forms they annotate.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Schema declares the fields of one form and which of them are required.
type Schema struct {
	Fields   map[string]Field `json:"fields"`
	Required []string         `json:"required,omitempty"`
}

// Field declares the type and constraints of a single form field.
type Field struct {
	Type      string   `json:"type"` // string, number, boolean, date, array
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`
	// MinDigits counts decimal digits after stripping punctuation, used for
	// phone and tax-identifier fields.
	MinDigits *int `json:"minDigits,omitempty"`
	// Format applies a named semantic check: "email", "cpf", "cnpj", "cep".
	Format string `json:"format,omitempty"`
}

// Result maps field names to human-readable Portuguese messages. An empty
// map means the value set was accepted.
type Result struct {
	Errors map[string]string
}

func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Result) Add(field, message string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	// First error per field wins; inline forms show one message at a time.
	if _, exists := r.Errors[field]; !exists {
		r.Errors[field] = message
	}
}

// CrossFieldRule validates a relation between fields after every per-field
// rule passed. It reports its error against a single field.
type CrossFieldRule func(values map[string]interface{}) (field, message string)

// Validate checks a candidate value map against the schema. It performs no
// network or storage side effects.
func Validate(values map[string]interface{}, schema Schema, rules ...CrossFieldRule) *Result {
	result := &Result{}

	for _, required := range schema.Required {
		v, exists := values[required]
		if !exists || isEmpty(v) {
			result.Add(required, "Campo obrigatório")
		}
	}

	for name, value := range values {
		field, exists := schema.Fields[name]
		if !exists {
			result.Add(name, "Campo não reconhecido")
			continue
		}
		if isEmpty(value) {
			continue // required-ness already handled above
		}
		validateField(result, name, value, field)
	}

	if !result.Valid() {
		return result
	}

	for _, rule := range rules {
		if field, message := rule(values); field != "" {
			result.Add(field, message)
		}
	}

	return result
}

func validateField(result *Result, name string, value interface{}, field Field) {
	if err := checkType(value, field.Type); err != nil {
		result.Add(name, err.Error())
		return
	}

	if strVal, ok := value.(string); ok {
		// Length limits count characters, not bytes: accented pt-BR input
		// must not burn through a limit early.
		runeCount := utf8.RuneCountInString(strVal)
		if field.MinLength != nil && runeCount < *field.MinLength {
			result.Add(name, fmt.Sprintf("Deve ter pelo menos %d caracteres", *field.MinLength))
		}
		if field.MaxLength != nil && runeCount > *field.MaxLength {
			result.Add(name, fmt.Sprintf("Deve ter no máximo %d caracteres", *field.MaxLength))
		}
		if field.MinDigits != nil && len(Digits(strVal)) < *field.MinDigits {
			result.Add(name, fmt.Sprintf("Deve conter pelo menos %d dígitos", *field.MinDigits))
		}
		if field.Pattern != nil {
			matched, err := regexp.MatchString(*field.Pattern, strVal)
			if err != nil || !matched {
				result.Add(name, "Formato inválido")
			}
		}
		if len(field.Enum) > 0 && !contains(field.Enum, strVal) {
			result.Add(name, fmt.Sprintf("Deve ser um de: %s", strings.Join(field.Enum, ", ")))
		}
		checkFormat(result, name, strVal, field.Format)
	}

	if field.Type == "currency" {
		if strVal, ok := value.(string); ok {
			if d := Digits(strVal); d != "" {
				value = parseDigits(d) / 100
			} else {
				return
			}
		}
	}

	if numVal, ok := toFloat(value); ok {
		if field.Minimum != nil && numVal < *field.Minimum {
			result.Add(name, fmt.Sprintf("Deve ser maior ou igual a %g", *field.Minimum))
		}
		if field.Maximum != nil && numVal > *field.Maximum {
			result.Add(name, fmt.Sprintf("Deve ser menor ou igual a %g", *field.Maximum))
		}
	}
}

func checkType(value interface{}, expected string) error {
	switch expected {
	case "string", "date":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("Deve ser um texto")
		}
		if expected == "date" {
			if _, err := time.Parse("2006-01-02", value.(string)); err != nil {
				return fmt.Errorf("Data inválida")
			}
		}
	case "number":
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("Deve ser um número")
		}
	case "currency":
		// Accepts either a numeric value or a display string the formatter
		// can coerce ("R$ 1.234,56").
		if _, ok := toFloat(value); ok {
			return nil
		}
		if _, ok := value.(string); !ok {
			return fmt.Errorf("Deve ser um valor monetário")
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("Deve ser verdadeiro ou falso")
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("Deve ser uma lista")
		}
	}
	return nil
}

func checkFormat(result *Result, name, value, format string) {
	switch format {
	case "email":
		if !ValidateEmail(value) {
			result.Add(name, "E-mail inválido")
		}
	case "cpf":
		if len(Digits(value)) != 11 {
			result.Add(name, "CPF deve conter 11 dígitos")
		}
	case "cnpj":
		if len(Digits(value)) != 14 {
			result.Add(name, "CNPJ deve conter 14 dígitos")
		}
	case "cpf_cnpj":
		if n := len(Digits(value)); n != 11 && n != 14 {
			result.Add(name, "CPF ou CNPJ inválido")
		}
	case "cep":
		if len(Digits(value)) != 8 {
			result.Add(name, "CEP deve conter 8 dígitos")
		}
	}
}

func parseDigits(d string) float64 {
	var v float64
	for _, r := range d {
		v = v*10 + float64(r-'0')
	}
	return v
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// Digits strips everything but decimal digits from a string.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IntPtr returns a pointer to i, for schema literals.
func IntPtr(i int) *int { return &i }

// FloatPtr returns a pointer to f, for schema literals.
func FloatPtr(f float64) *float64 { return &f }

// StrPtr returns a pointer to s, for schema literals.
func StrPtr(s string) *string { return &s }
