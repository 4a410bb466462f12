// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"seguros-cotacoes/internal/cep"
	appErrors "seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/quote"
)

const maxAttachmentBytes = 10 << 20

// Submitter is the quote pipeline as the HTTP layer sees it.
type Submitter interface {
	Submit(ctx context.Context, sub *quote.Submission) (*quote.Receipt, error)
}

// AddressLookup resolves a CEP to an address, nil when not found.
type AddressLookup interface {
	Lookup(ctx context.Context, code string) *cep.Address
}

type Handlers struct {
	submitter Submitter
	addresses AddressLookup
	catalog   *quote.Catalog
	logger    logger.Logger
}

func NewHandlers(submitter Submitter, addresses AddressLookup, catalog *quote.Catalog, log logger.Logger) *Handlers {
	return &Handlers{
		submitter: submitter,
		addresses: addresses,
		catalog:   catalog,
		logger:    log.WithFields(map[string]interface{}{"component": "api-handlers"}),
	}
}

// SubmitQuote accepts a quote submission as application/json, or as
// multipart/form-data with the fields in a "payload" part and the optional
// policy document in a "policy_file" part.
func (h *Handlers) SubmitQuote(c *gin.Context) {
	sub, err := h.parseSubmission(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	sub.Product = c.Param("product")
	if token := c.GetHeader("X-Idempotency-Token"); token != "" {
		sub.IdempotencyToken = token
	}

	receipt, err := h.submitter.Submit(c.Request.Context(), sub)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// LookupAddress resolves a CEP through the external directory. A code that
// does not resolve returns 204 rather than an error, mirroring the adapter's
// never-fail contract.
func (h *Handlers) LookupAddress(c *gin.Context) {
	addr := h.addresses.Lookup(c.Request.Context(), c.Param("cep"))
	if addr == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, addr)
}

// ListProducts returns the product slugs and titles the catalog accepts.
func (h *Handlers) ListProducts(c *gin.Context) {
	type productInfo struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	products := h.catalog.Products()
	out := make([]productInfo, 0, len(products))
	for _, p := range products {
		spec, err := h.catalog.Spec(string(p))
		if err != nil {
			continue
		}
		out = append(out, productInfo{Slug: string(p), Title: spec.Title})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) parseSubmission(c *gin.Context) (*quote.Submission, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.parseMultipart(c)
	}

	var values map[string]interface{}
	if err := c.ShouldBindJSON(&values); err != nil {
		return nil, appErrors.NewValidationFailedError(map[string]string{
			"body": "JSON inválido",
		})
	}
	return buildSubmission(values, nil)
}

func (h *Handlers) parseMultipart(c *gin.Context) (*quote.Submission, error) {
	payload := c.PostForm("payload")
	if payload == "" {
		return nil, appErrors.NewValidationFailedError(map[string]string{
			"payload": "Campo obrigatório",
		})
	}

	var values map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return nil, appErrors.NewValidationFailedError(map[string]string{
			"payload": "JSON inválido",
		})
	}

	var att *quote.Attachment
	file, err := c.FormFile("policy_file")
	if err == nil && file != nil {
		att, err = readAttachment(file)
		if err != nil {
			return nil, err
		}
	}

	return buildSubmission(values, att)
}

// buildSubmission pops the transport-level keys out of the value map so the
// validator only ever sees product fields.
func buildSubmission(values map[string]interface{}, att *quote.Attachment) (*quote.Submission, error) {
	sub := &quote.Submission{Values: values, Attachment: att}

	if token, ok := values["idempotency_token"].(string); ok {
		sub.IdempotencyToken = token
		delete(values, "idempotency_token")
	}

	if raw, ok := values["dependents"]; ok {
		delete(values, "dependents")
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, appErrors.NewValidationFailedError(map[string]string{
				"dependents": "Formato inválido",
			})
		}
		if err := json.Unmarshal(data, &sub.Dependents); err != nil {
			return nil, appErrors.NewValidationFailedError(map[string]string{
				"dependents": "Formato inválido",
			})
		}
	}

	return sub, nil
}

func readAttachment(file *multipart.FileHeader) (*quote.Attachment, error) {
	if file.Size > maxAttachmentBytes {
		return nil, appErrors.NewValidationFailedError(map[string]string{
			"policy_file": "Arquivo excede o tamanho máximo de 10MB",
		})
	}

	f, err := file.Open()
	if err != nil {
		return nil, appErrors.NewAttachmentUploadFailedError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAttachmentBytes+1))
	if err != nil {
		return nil, appErrors.NewAttachmentUploadFailedError(err)
	}

	return &quote.Attachment{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	stdErr, ok := err.(*appErrors.StandardError)
	if !ok {
		h.logger.Error("unhandled error", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"code":    "INTERNAL_ERROR",
			"message": "Erro interno",
		})
		return
	}

	status := http.StatusInternalServerError
	body := gin.H{
		"success": false,
		"code":    string(stdErr.Code),
		"message": stdErr.Message,
	}

	switch stdErr.Code {
	case appErrors.ErrCodeValidationFailed:
		status = http.StatusUnprocessableEntity
		if fields := appErrors.FieldErrors(stdErr); fields != nil {
			body["fields"] = fields
		}
	case appErrors.ErrCodeUnknownProduct:
		status = http.StatusNotFound
	case appErrors.ErrCodeDuplicateSubmission:
		status = http.StatusConflict
	case appErrors.ErrCodeAttachmentUploadFailed:
		status = http.StatusBadGateway
	}

	c.JSON(status, body)
}
