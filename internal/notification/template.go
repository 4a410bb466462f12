// internal/notification/template.go
package notification

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"seguros-cotacoes/internal/formatter"
	"seguros-cotacoes/internal/quote"
)

// notInformed is rendered for every optional field the visitor left blank.
const notInformed = "Não informado"

var contactLabels = []struct{ field, label string }{
	{"full_name", "Nome completo"},
	{"document_number", "CPF/CNPJ"},
	{"email", "E-mail"},
	{"phone", "Telefone"},
	{"seller", "Consultor"},
}

var addressLabels = []struct{ field, label string }{
	{"cep", "CEP"},
	{"street", "Logradouro"},
	{"number", "Número"},
	{"complement", "Complemento"},
	{"neighborhood", "Bairro"},
	{"city", "Cidade"},
	{"state", "UF"},
}

// templateDataSchema guards the render input: a quote that reached this point
// without its mandatory contact fields indicates a pipeline bug, and the
// notification is aborted instead of mailing a half-empty report.
var templateDataSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"full_name", "document_number", "email", "phone", "seller"},
	"properties": map[string]interface{}{
		"full_name":       map[string]interface{}{"type": "string", "minLength": 1},
		"document_number": map[string]interface{}{"type": "string", "minLength": 1},
		"email":           map[string]interface{}{"type": "string", "minLength": 1},
		"phone":           map[string]interface{}{"type": "string", "minLength": 1},
		"seller":          map[string]interface{}{"type": "string", "minLength": 1},
	},
}

// Render produces the subject line and HTML body for the operations mailbox.
func Render(spec *quote.ProductSpec, q *quote.Quote) (subject, body string, err error) {
	data := map[string]interface{}{
		"full_name":       q.Contact.FullName,
		"document_number": q.Contact.Document,
		"email":           q.Contact.Email,
		"phone":           q.Contact.Phone,
		"seller":          q.Seller,
	}
	if err := validateTemplateData(data); err != nil {
		return "", "", err
	}

	subject = fmt.Sprintf("Nova cotação de %s - %s (consultor: %s)",
		spec.Title, q.Contact.FullName, q.Seller)

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<h2>Nova cotação de %s</h2>", htmlEscape(spec.Title)))

	b.WriteString("<h3>Contato</h3><table>")
	contact := map[string]string{
		"full_name":       q.Contact.FullName,
		"document_number": q.Contact.Document,
		"email":           q.Contact.Email,
		"phone":           q.Contact.Phone,
		"seller":          q.Seller,
	}
	for _, cl := range contactLabels {
		writeRow(&b, cl.label, renderString(contact[cl.field]))
	}
	b.WriteString("</table>")

	if spec.HasAddress {
		b.WriteString("<h3>Endereço</h3><table>")
		addr := q.Address
		if addr == nil {
			addr = &quote.Address{}
		}
		fields := map[string]string{
			"cep": addr.CEP, "street": addr.Street, "number": addr.Number,
			"complement": addr.Complement, "neighborhood": addr.Neighborhood,
			"city": addr.City, "state": addr.State,
		}
		for _, al := range addressLabels {
			writeRow(&b, al.label, renderString(fields[al.field]))
		}
		b.WriteString("</table>")
	}

	if len(spec.DetailColumns) > 0 {
		b.WriteString("<h3>Dados da cotação</h3><table>")
		for _, name := range spec.DetailColumns {
			label := spec.Labels[name]
			if label == "" {
				label = name
			}
			isCurrency := spec.Fields[name].Type == "currency"
			writeRow(&b, label, renderValue(q.Details[name], isCurrency))
		}
		b.WriteString("</table>")
	}

	if spec.HasDependents {
		b.WriteString("<h3>Dependentes</h3>")
		if len(q.Dependents) == 0 {
			b.WriteString("<p>" + notInformed + "</p>")
		} else {
			b.WriteString("<table><tr><th>Nome</th><th>CPF</th><th>Nascimento</th><th>Idade</th></tr>")
			for _, d := range q.Dependents {
				b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>",
					htmlEscape(d.Name), htmlEscape(d.Document), htmlEscape(d.BirthDate), d.Age))
			}
			b.WriteString("</table>")
		}
	}

	if q.AttachmentPath != "" {
		b.WriteString(fmt.Sprintf("<p>Arquivo de apólice: %s</p>", htmlEscape(q.AttachmentPath)))
	}
	b.WriteString(fmt.Sprintf("<p>Protocolo: %s</p>", htmlEscape(q.ID)))
	b.WriteString("</body></html>")

	return subject, b.String(), nil
}

func validateTemplateData(data map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(templateDataSchema)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("template data validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("template data invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(fmt.Sprintf("<tr><td><strong>%s</strong></td><td>%s</td></tr>",
		htmlEscape(label), htmlEscape(value)))
}

func renderString(s string) string {
	if strings.TrimSpace(s) == "" {
		return notInformed
	}
	return s
}

func renderValue(value interface{}, isCurrency bool) string {
	switch v := value.(type) {
	case nil:
		return notInformed
	case string:
		return renderString(v)
	case bool:
		if v {
			return "Sim"
		}
		return "Não"
	case float64:
		if isCurrency {
			return formatter.Currency(strconv.FormatInt(int64(math.Round(v*100)), 10))
		}
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []interface{}:
		if len(v) == 0 {
			return notInformed
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderValue(item, false)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%v", value)
}

func htmlEscape(s string) string {
	return html.EscapeString(s)
}
