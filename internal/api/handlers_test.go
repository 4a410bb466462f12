// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seguros-cotacoes/internal/cep"
	appErrors "seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/quote"
)

type fakeSubmitter struct {
	received *quote.Submission
	receipt  *quote.Receipt
	err      error
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub *quote.Submission) (*quote.Receipt, error) {
	f.received = sub
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeAddresses struct {
	addr *cep.Address
}

func (f *fakeAddresses) Lookup(ctx context.Context, code string) *cep.Address {
	return f.addr
}

var testSellers = []string{"Felipe", "Ana", "Bruno"}

func newTestServer(t *testing.T, submitter Submitter, addresses AddressLookup) *Server {
	log := logger.NewTestLogger(t)
	handlers := NewHandlers(submitter, addresses, quote.NewCatalog(testSellers), log)
	return NewServer(":0", Timeouts{}, handlers, log)
}

func TestServerAppliesConfiguredTimeouts(t *testing.T) {
	log := logger.NewTestLogger(t)
	handlers := NewHandlers(&fakeSubmitter{}, &fakeAddresses{}, quote.NewCatalog(testSellers), log)

	s := NewServer(":0", Timeouts{
		Read:    15 * time.Second,
		Write:   20 * time.Second,
		Request: 30 * time.Second,
	}, handlers, log)

	assert.Equal(t, 15*time.Second, s.server.ReadTimeout)
	assert.Equal(t, 20*time.Second, s.server.WriteTimeout)
}

type deadlineSubmitter struct {
	hadDeadline bool
}

func (d *deadlineSubmitter) Submit(ctx context.Context, sub *quote.Submission) (*quote.Receipt, error) {
	_, d.hadDeadline = ctx.Deadline()
	return okReceipt(), nil
}

func TestServerRequestTimeoutBoundsHandlerContext(t *testing.T) {
	log := logger.NewTestLogger(t)
	submitter := &deadlineSubmitter{}
	handlers := NewHandlers(submitter, &fakeAddresses{}, quote.NewCatalog(testSellers), log)
	s := NewServer(":0", Timeouts{Request: 30 * time.Second}, handlers, log)

	w := performJSON(t, s, http.MethodPost, "/v1/quotes/auto", map[string]interface{}{})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, submitter.hadDeadline)
}

func okReceipt() *quote.Receipt {
	return &quote.Receipt{
		Success:      true,
		QuoteID:      "q-1",
		CreatedAt:    "2026-08-31T12:00:00Z",
		WhatsAppLink: "https://wa.me/5521972110705?text=ola",
	}
}

func performJSON(t *testing.T, s *Server, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestSubmitQuote_Created(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	w := performJSON(t, s, http.MethodPost, "/v1/quotes/auto", map[string]interface{}{
		"full_name": "Maria Silva",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var receipt quote.Receipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.True(t, receipt.Success)
	assert.Equal(t, "q-1", receipt.QuoteID)
	assert.Equal(t, "https://wa.me/5521972110705?text=ola", receipt.WhatsAppLink)
	assert.Equal(t, "auto", submitter.received.Product)
}

func TestSubmitQuote_IdempotencyTokenFromHeader(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(map[string]interface{}{"full_name": "Maria"}))
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/auto", &body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Token", "tok-9")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "tok-9", submitter.received.IdempotencyToken)
}

func TestSubmitQuote_TokenInBodyIsPoppedFromValues(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	performJSON(t, s, http.MethodPost, "/v1/quotes/auto", map[string]interface{}{
		"full_name":         "Maria",
		"idempotency_token": "tok-3",
	})

	assert.Equal(t, "tok-3", submitter.received.IdempotencyToken)
	assert.NotContains(t, submitter.received.Values, "idempotency_token")
}

func TestSubmitQuote_DependentsAreDecoded(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	performJSON(t, s, http.MethodPost, "/v1/quotes/health", map[string]interface{}{
		"full_name": "Maria",
		"dependents": []map[string]interface{}{
			{"name": "João Silva", "document_number": "98765432100", "birth_date": "2015-03-10"},
		},
	})

	require.Len(t, submitter.received.Dependents, 1)
	assert.Equal(t, "João Silva", submitter.received.Dependents[0].Name)
	assert.NotContains(t, submitter.received.Values, "dependents")
}

func TestSubmitQuote_ValidationFailureMapsTo422(t *testing.T) {
	submitter := &fakeSubmitter{
		err: appErrors.NewValidationFailedError(map[string]string{"email": "Campo obrigatório"}),
	}
	s := newTestServer(t, submitter, &fakeAddresses{})

	w := performJSON(t, s, http.MethodPost, "/v1/quotes/auto", map[string]interface{}{})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "VALIDATION_FAILED", resp["code"])
	fields := resp["fields"].(map[string]interface{})
	assert.Equal(t, "Campo obrigatório", fields["email"])
}

func TestSubmitQuote_UnknownProductMapsTo404(t *testing.T) {
	submitter := &fakeSubmitter{err: appErrors.NewUnknownProductError("pet")}
	s := newTestServer(t, submitter, &fakeAddresses{})

	w := performJSON(t, s, http.MethodPost, "/v1/quotes/pet", map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitQuote_DuplicateMapsTo409(t *testing.T) {
	submitter := &fakeSubmitter{err: appErrors.NewDuplicateSubmissionError("tok-1")}
	s := newTestServer(t, submitter, &fakeAddresses{})

	w := performJSON(t, s, http.MethodPost, "/v1/quotes/auto", map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitQuote_InsertFailureMapsTo500(t *testing.T) {
	submitter := &fakeSubmitter{
		err: appErrors.NewDatabaseInsertFailedError("auto_quotes", errors.New("down")),
	}
	s := newTestServer(t, submitter, &fakeAddresses{})

	w := performJSON(t, s, http.MethodPost, "/v1/quotes/auto", map[string]interface{}{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSubmitQuote_MalformedJSONMapsTo422(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/auto", strings.NewReader("{nope"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, submitter.received)
}

func TestSubmitQuote_MultipartWithPolicyFile(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	payload, err := json.Marshal(map[string]interface{}{"full_name": "Maria"})
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("payload", string(payload)))
	part, err := mw.CreateFormFile("policy_file", "apolice.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("conteudo do pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/auto", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, submitter.received.Attachment)
	assert.Equal(t, "apolice.pdf", submitter.received.Attachment.Filename)
	assert.Equal(t, []byte("conteudo do pdf"), submitter.received.Attachment.Data)
	assert.Equal(t, "Maria", submitter.received.Values["full_name"])
}

func TestSubmitQuote_MultipartWithoutPayloadRejected(t *testing.T) {
	submitter := &fakeSubmitter{receipt: okReceipt()}
	s := newTestServer(t, submitter, &fakeAddresses{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/auto", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, submitter.received)
}

func TestLookupAddress_Hit(t *testing.T) {
	addr := &cep.Address{CEP: "01310-100", Street: "Avenida Paulista", City: "São Paulo", State: "SP"}
	s := newTestServer(t, &fakeSubmitter{}, &fakeAddresses{addr: addr})

	w := performJSON(t, s, http.MethodGet, "/v1/address/01310100", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got cep.Address
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Avenida Paulista", got.Street)
	assert.Equal(t, "SP", got.State)
}

func TestLookupAddress_MissReturns204(t *testing.T) {
	s := newTestServer(t, &fakeSubmitter{}, &fakeAddresses{})

	w := performJSON(t, s, http.MethodGet, "/v1/address/99999999", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t, &fakeSubmitter{}, &fakeAddresses{})

	w := performJSON(t, s, http.MethodGet, "/v1/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []struct {
			Slug  string `json:"slug"`
			Title string `json:"title"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 8)
	assert.Equal(t, "auto", resp.Products[0].Slug)
	assert.Equal(t, "Seguro Auto", resp.Products[0].Title)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeSubmitter{}, &fakeAddresses{})

	w := performJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
