// internal/quote/repository.go
package quote

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
)

// baseColumns are shared by every product table, in insert order.
var baseColumns = []string{
	"id", "full_name", "document_number", "email", "phone",
	"seller", "status", "attachment_path", "created_at",
}

// addressColumns follow the base columns on tables whose product carries an
// address block.
var addressColumns = []string{
	"cep", "street", "number", "complement", "neighborhood", "city", "state",
}

// Repository persists accepted quotes. Each product has its own table; the
// column list is derived from the product spec so the insert is built once
// per call instead of hand-written eight times.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "quote-repository"}),
	}
}

// Insert writes the quote row and, for products that accept dependents, the
// dependent rows in the same transaction. The returned error is a
// DATABASE_INSERT_FAILED StandardError; the caller treats it as fatal.
func (r *Repository) Insert(ctx context.Context, spec *ProductSpec, q *Quote) error {
	columns := make([]string, 0, len(baseColumns)+len(addressColumns)+len(spec.DetailColumns))
	args := make([]interface{}, 0, cap(columns))

	columns = append(columns, baseColumns...)
	args = append(args,
		q.ID, q.Contact.FullName, q.Contact.Document, q.Contact.Email, q.Contact.Phone,
		q.Seller, q.Status, nullable(q.AttachmentPath), q.CreatedAt,
	)

	if spec.HasAddress {
		columns = append(columns, addressColumns...)
		addr := q.Address
		if addr == nil {
			addr = &Address{}
		}
		args = append(args,
			nullable(addr.CEP), nullable(addr.Street), nullable(addr.Number),
			nullable(addr.Complement), nullable(addr.Neighborhood),
			nullable(addr.City), nullable(addr.State),
		)
	}

	for _, name := range spec.DetailColumns {
		columns = append(columns, name)
		args = append(args, detailArg(q.Details[name]))
	}

	query := buildInsert(spec.Table, columns)

	if !spec.HasDependents || len(q.Dependents) == 0 {
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return r.insertError(spec, q, err)
		}
		r.logInserted(spec, q)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.insertError(spec, q, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return r.insertError(spec, q, err)
	}

	depQuery := buildInsert(spec.Table+"_dependents", []string{
		"quote_id", "name", "document_number", "birth_date", "age",
	})
	for _, d := range q.Dependents {
		if _, err := tx.ExecContext(ctx, depQuery, q.ID, d.Name, d.Document, d.BirthDate, d.Age); err != nil {
			return r.insertError(spec, q, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return r.insertError(spec, q, err)
	}
	r.logInserted(spec, q)
	return nil
}

func (r *Repository) insertError(spec *ProductSpec, q *Quote, err error) error {
	r.logger.Error("quote insert failed", map[string]interface{}{
		"error":   err.Error(),
		"product": string(spec.Product),
		"quoteId": q.ID,
	})
	return errors.NewDatabaseInsertFailedError(spec.Table, err)
}

func (r *Repository) logInserted(spec *ProductSpec, q *Quote) {
	r.logger.Info("quote persisted", map[string]interface{}{
		"product":    string(spec.Product),
		"quoteId":    q.ID,
		"table":      spec.Table,
		"dependents": len(q.Dependents),
	})
}

func buildInsert(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// nullable maps empty strings to NULL so optional columns stay unset instead
// of storing "".
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func detailArg(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return nullable(s)
	}
	return value
}
