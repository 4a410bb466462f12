// Package cep implements the postal-code directory lookup used to prefill
// address fields. The adapter never returns an error to its caller: short
// codes are a no-op, not-found and network failures both normalize to a nil
// address.
package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"seguros-cotacoes/internal/common/errors"
	commonhttp "seguros-cotacoes/internal/common/http"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/common/metrics"
	"seguros-cotacoes/internal/common/validation"
)

// Address is the subset of directory fields the forms consume.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento,omitempty"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

type directoryResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	NotFound     bool   `json:"erro"`
}

type Client struct {
	baseURL    string
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "cep"}),
	}
}

// Lookup resolves an 8-digit postal code to an address. Input with any other
// digit count after stripping punctuation returns (nil, no call made). A nil
// result with no error means the directory had no data for the code.
func (c *Client) Lookup(ctx context.Context, code string) *Address {
	digits := validation.Digits(code)
	if len(digits) != 8 {
		return nil
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, digits)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		// The structured error is logged and swallowed; the lookup contract
		// never surfaces failures to the form.
		c.logger.Warn("postal code lookup failed", map[string]interface{}{
			"error": errors.NewAddressLookupFailedError(digits, err).Error(),
		})
		metrics.AddressLookups.WithLabelValues("error").Inc()
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("postal code directory returned non-200", map[string]interface{}{
			"cep":    digits,
			"status": resp.StatusCode,
		})
		metrics.AddressLookups.WithLabelValues("error").Inc()
		return nil
	}

	var payload directoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("failed to decode directory response", map[string]interface{}{
			"cep":   digits,
			"error": err.Error(),
		})
		metrics.AddressLookups.WithLabelValues("error").Inc()
		return nil
	}

	if payload.NotFound {
		metrics.AddressLookups.WithLabelValues("not_found").Inc()
		return nil
	}

	metrics.AddressLookups.WithLabelValues("hit").Inc()
	return &Address{
		CEP:          payload.CEP,
		Street:       payload.Street,
		Complement:   payload.Complement,
		Neighborhood: payload.Neighborhood,
		City:         payload.City,
		State:        payload.State,
	}
}
