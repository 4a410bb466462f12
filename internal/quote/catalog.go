// internal/quote/catalog.go
package quote

import (
	"seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/validation"
)

// ProductSpec declares everything the pipeline needs to know about one
// insurance product: its table, its product-specific fields, whether the
// address block applies, and the cross-field rules the form enforces.
type ProductSpec struct {
	Product Product
	// Title is the Portuguese product name used in email subjects.
	Title string
	// Table receives one row per submission.
	Table string
	// Fields declares the product-specific block. Keys double as column
	// names, so they stay snake_case.
	Fields map[string]validation.Field
	// Required lists the product-specific fields that must be present.
	Required []string
	// DetailColumns fixes the column order for inserts and email rendering.
	DetailColumns []string
	// Labels maps field names to the Portuguese labels shown in emails.
	Labels map[string]string
	// HasAddress marks products whose form carries the address block.
	HasAddress bool
	// HasDependents marks products with a dependents child collection.
	HasDependents bool
	// Rules are cross-field checks run after per-field validation passes.
	Rules []validation.CrossFieldRule
}

// Catalog holds the eight product specs plus the shared contact and address
// schemas. The seller enum comes from configuration so the roster is not
// hard-coded into the form definitions.
type Catalog struct {
	specs   map[Product]*ProductSpec
	contact validation.Schema
	address validation.Schema
}

// Spec returns the spec for a product slug, or an error for anything outside
// the catalog.
func (c *Catalog) Spec(slug string) (*ProductSpec, error) {
	spec, ok := c.specs[Product(slug)]
	if !ok {
		return nil, errors.NewUnknownProductError(slug)
	}
	return spec, nil
}

// Products lists the catalog slugs in a stable order.
func (c *Catalog) Products() []Product {
	return []Product{
		ProductAuto, ProductHome, ProductLife, ProductHealth,
		ProductTravel, ProductBusiness, ProductCivilWorks, ProductBond,
	}
}

// NewCatalog builds the product catalog. sellers is the consultant roster
// injected from configuration; it becomes the enum for the seller field.
func NewCatalog(sellers []string) *Catalog {
	c := &Catalog{
		specs: make(map[Product]*ProductSpec),
		contact: validation.Schema{
			Fields: map[string]validation.Field{
				"full_name":       {Type: "string", MinLength: validation.IntPtr(3), MaxLength: validation.IntPtr(150)},
				"document_number": {Type: "string", Format: "cpf_cnpj"},
				"email":           {Type: "string", Format: "email", MaxLength: validation.IntPtr(255)},
				"phone":           {Type: "string", MinDigits: validation.IntPtr(10), MaxLength: validation.IntPtr(25)},
				"seller":          {Type: "string", Enum: sellers},
			},
			Required: []string{"full_name", "document_number", "email", "phone", "seller"},
		},
		address: validation.Schema{
			Fields: map[string]validation.Field{
				"cep":          {Type: "string", Format: "cep"},
				"street":       {Type: "string", MaxLength: validation.IntPtr(200)},
				"number":       {Type: "string", MaxLength: validation.IntPtr(20)},
				"complement":   {Type: "string", MaxLength: validation.IntPtr(100)},
				"neighborhood": {Type: "string", MaxLength: validation.IntPtr(100)},
				"city":         {Type: "string", MaxLength: validation.IntPtr(100)},
				"state":        {Type: "string", Pattern: validation.StrPtr(`^[A-Z]{2}$`)},
			},
		},
	}

	for _, spec := range buildSpecs() {
		c.specs[spec.Product] = spec
	}
	return c
}

func buildSpecs() []*ProductSpec {
	return []*ProductSpec{
		{
			Product: ProductAuto,
			Title:   "Seguro Auto",
			Table:   "auto_quotes",
			Fields: map[string]validation.Field{
				"vehicle_brand":   {Type: "string", MaxLength: validation.IntPtr(60)},
				"vehicle_model":   {Type: "string", MaxLength: validation.IntPtr(80)},
				"vehicle_year":    {Type: "number", Minimum: validation.FloatPtr(1950), Maximum: validation.FloatPtr(2100)},
				"license_plate":   {Type: "string", MaxLength: validation.IntPtr(8)},
				"is_zero_km":      {Type: "boolean"},
				"garage_usage":    {Type: "string", Enum: []string{"sim", "nao", "nao_se_aplica"}},
				"overnight_cep":   {Type: "string", Format: "cep"},
				"current_insurer": {Type: "string", MaxLength: validation.IntPtr(80)},
				"bonus_class":     {Type: "number", Minimum: validation.FloatPtr(0), Maximum: validation.FloatPtr(10)},
			},
			Required: []string{"vehicle_brand", "vehicle_model", "vehicle_year"},
			DetailColumns: []string{
				"vehicle_brand", "vehicle_model", "vehicle_year", "license_plate",
				"is_zero_km", "garage_usage", "overnight_cep", "current_insurer", "bonus_class",
			},
			Labels: map[string]string{
				"vehicle_brand":   "Marca do veículo",
				"vehicle_model":   "Modelo do veículo",
				"vehicle_year":    "Ano do veículo",
				"license_plate":   "Placa",
				"is_zero_km":      "Zero km",
				"garage_usage":    "Garagem",
				"overnight_cep":   "CEP de pernoite",
				"current_insurer": "Seguradora atual",
				"bonus_class":     "Classe de bônus",
			},
			HasAddress: true,
		},
		{
			Product: ProductHome,
			Title:   "Seguro Residencial",
			Table:   "home_quotes",
			Fields: map[string]validation.Field{
				"property_type":  {Type: "string", Enum: []string{"casa", "apartamento"}},
				"occupancy":      {Type: "string", Enum: []string{"propria", "alugada", "veraneio"}},
				"property_value": {Type: "currency", Minimum: validation.FloatPtr(0)},
				"has_alarm":      {Type: "boolean"},
				"construction":   {Type: "string", Enum: []string{"alvenaria", "madeira", "mista"}},
			},
			Required:      []string{"property_type", "occupancy"},
			DetailColumns: []string{"property_type", "occupancy", "property_value", "has_alarm", "construction"},
			Labels: map[string]string{
				"property_type":  "Tipo de imóvel",
				"occupancy":      "Ocupação",
				"property_value": "Valor do imóvel",
				"has_alarm":      "Possui alarme",
				"construction":   "Construção",
			},
			HasAddress: true,
		},
		{
			Product: ProductLife,
			Title:   "Seguro de Vida",
			Table:   "life_quotes",
			Fields: map[string]validation.Field{
				"birth_date":     {Type: "date"},
				"occupation":     {Type: "string", MaxLength: validation.IntPtr(100)},
				"monthly_income": {Type: "currency", Minimum: validation.FloatPtr(0)},
				"smoker":         {Type: "boolean"},
				"coverage_value": {Type: "currency", Minimum: validation.FloatPtr(0)},
				"beneficiaries":  {Type: "number", Minimum: validation.FloatPtr(0), Maximum: validation.FloatPtr(20)},
			},
			Required:      []string{"birth_date"},
			DetailColumns: []string{"birth_date", "occupation", "monthly_income", "smoker", "coverage_value", "beneficiaries"},
			Labels: map[string]string{
				"birth_date":     "Data de nascimento",
				"occupation":     "Profissão",
				"monthly_income": "Renda mensal",
				"smoker":         "Fumante",
				"coverage_value": "Capital segurado",
				"beneficiaries":  "Beneficiários",
			},
		},
		{
			Product: ProductHealth,
			Title:   "Plano de Saúde",
			Table:   "health_quotes",
			Fields: map[string]validation.Field{
				"plan_type":      {Type: "string", Enum: []string{"individual", "familiar", "empresarial"}},
				"birth_date":     {Type: "date"},
				"accommodation":  {Type: "string", Enum: []string{"enfermaria", "apartamento"}},
				"has_plan_today": {Type: "boolean"},
			},
			Required:      []string{"plan_type", "birth_date"},
			DetailColumns: []string{"plan_type", "birth_date", "accommodation", "has_plan_today"},
			Labels: map[string]string{
				"plan_type":      "Tipo de plano",
				"birth_date":     "Data de nascimento",
				"accommodation":  "Acomodação",
				"has_plan_today": "Possui plano atualmente",
			},
			HasDependents: true,
		},
		{
			Product: ProductTravel,
			Title:   "Seguro Viagem",
			Table:   "travel_quotes",
			Fields: map[string]validation.Field{
				"destination":    {Type: "string", MaxLength: validation.IntPtr(100)},
				"departure_date": {Type: "date"},
				"return_date":    {Type: "date"},
				"travelers":      {Type: "number", Minimum: validation.FloatPtr(1), Maximum: validation.FloatPtr(30)},
				"purpose":        {Type: "string", Enum: []string{"lazer", "negocios", "estudos"}},
			},
			Required:      []string{"destination", "departure_date", "return_date", "travelers"},
			DetailColumns: []string{"destination", "departure_date", "return_date", "travelers", "purpose"},
			Labels: map[string]string{
				"destination":    "Destino",
				"departure_date": "Data de ida",
				"return_date":    "Data de retorno",
				"travelers":      "Viajantes",
				"purpose":        "Motivo da viagem",
			},
			Rules: []validation.CrossFieldRule{
				dateOrderRule("departure_date", "return_date", "return_date",
					"Data de retorno não pode ser anterior à data de ida"),
			},
		},
		{
			Product: ProductBusiness,
			Title:   "Seguro Empresarial",
			Table:   "business_quotes",
			Fields: map[string]validation.Field{
				"company_name":       {Type: "string", MaxLength: validation.IntPtr(150)},
				"activity_sector":    {Type: "string", MaxLength: validation.IntPtr(100)},
				"employee_count":     {Type: "number", Minimum: validation.FloatPtr(0)},
				"coverage_fire":      {Type: "currency", Minimum: validation.FloatPtr(0)},
				"coverage_theft":     {Type: "currency", Minimum: validation.FloatPtr(0)},
				"coverage_liability": {Type: "currency", Minimum: validation.FloatPtr(0)},
			},
			Required: []string{"company_name", "activity_sector"},
			DetailColumns: []string{
				"company_name", "activity_sector", "employee_count",
				"coverage_fire", "coverage_theft", "coverage_liability",
			},
			Labels: map[string]string{
				"company_name":       "Razão social",
				"activity_sector":    "Ramo de atividade",
				"employee_count":     "Número de funcionários",
				"coverage_fire":      "Cobertura incêndio",
				"coverage_theft":     "Cobertura roubo",
				"coverage_liability": "Cobertura responsabilidade civil",
			},
			HasAddress: true,
		},
		{
			Product: ProductCivilWorks,
			Title:   "Seguro de Obras Civis",
			Table:   "civil_works_quotes",
			Fields: map[string]validation.Field{
				"work_type":            {Type: "string", Enum: []string{"construcao", "reforma", "infraestrutura"}},
				"work_description":     {Type: "string", MaxLength: validation.IntPtr(500)},
				"start_date":           {Type: "date"},
				"end_date":             {Type: "date"},
				"contract_value":       {Type: "currency", Minimum: validation.FloatPtr(0)},
				"coverage_structural":  {Type: "currency", Minimum: validation.FloatPtr(0)},
				"coverage_third_party": {Type: "currency", Minimum: validation.FloatPtr(0)},
			},
			Required: []string{"work_type", "start_date", "end_date", "contract_value"},
			DetailColumns: []string{
				"work_type", "work_description", "start_date", "end_date",
				"contract_value", "coverage_structural", "coverage_third_party",
			},
			Labels: map[string]string{
				"work_type":            "Tipo de obra",
				"work_description":     "Descrição da obra",
				"start_date":           "Início da obra",
				"end_date":             "Término da obra",
				"contract_value":       "Valor do contrato",
				"coverage_structural":  "Cobertura estrutural",
				"coverage_third_party": "Cobertura danos a terceiros",
			},
			HasAddress: true,
			Rules: []validation.CrossFieldRule{
				dateOrderRule("start_date", "end_date", "end_date",
					"Término da obra não pode ser anterior ao início"),
			},
		},
		{
			Product: ProductBond,
			Title:   "Seguro Garantia",
			Table:   "bond_quotes",
			Fields: map[string]validation.Field{
				"contract_type":  {Type: "string", Enum: []string{"licitacao", "execucao", "judicial"}},
				"contract_value": {Type: "currency", Minimum: validation.FloatPtr(0)},
				"contract_start": {Type: "date"},
				"contract_end":   {Type: "date"},
				"obligee_name":   {Type: "string", MaxLength: validation.IntPtr(150)},
			},
			Required:      []string{"contract_type", "contract_value"},
			DetailColumns: []string{"contract_type", "contract_value", "contract_start", "contract_end", "obligee_name"},
			Labels: map[string]string{
				"contract_type":  "Modalidade",
				"contract_value": "Valor do contrato",
				"contract_start": "Início da vigência",
				"contract_end":   "Fim da vigência",
				"obligee_name":   "Segurado/beneficiário",
			},
			Rules: []validation.CrossFieldRule{
				dateOrderRule("contract_start", "contract_end", "contract_end",
					"Fim da vigência não pode ser anterior ao início"),
			},
		},
	}
}

// dateOrderRule reports an error on errField when the date in laterField
// precedes the one in earlierField. Missing or malformed dates are ignored
// here; per-field validation already covers them.
func dateOrderRule(earlierField, laterField, errField, message string) validation.CrossFieldRule {
	return func(values map[string]interface{}) (string, string) {
		earlier, ok1 := values[earlierField].(string)
		later, ok2 := values[laterField].(string)
		if !ok1 || !ok2 {
			return "", ""
		}
		if later < earlier {
			return errField, message
		}
		return "", ""
	}
}
