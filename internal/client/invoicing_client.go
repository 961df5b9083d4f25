package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// InvoiceRenderRequest is the payload sent to the invoicing collaborator
// when a sale closes.
type InvoiceRenderRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Currency      string `json:"currency"`
	IssueDate     string `json:"issue_date"`
	Subtotal      string `json:"subtotal"`
	Tax           string `json:"tax"`
	Total         string `json:"total"`
}

// InvoicingClient is the external collaborator that renders the PDF invoice
// and mails it to the customer. A failure here must abort the closing
// transaction so the sale stays delivered.
type InvoicingClient interface {
	RenderInvoice(ctx context.Context, req InvoiceRenderRequest) (pdfURL string, err error)
}

type httpInvoicingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPInvoicingClient(baseURL string) InvoicingClient {
	return &httpInvoicingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpInvoicingClient) RenderInvoice(ctx context.Context, req InvoiceRenderRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("invoicing service returned status %d", resp.StatusCode)
	}

	var payload struct {
		PDFURL string `json:"pdf_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode invoicing response: %w", err)
	}
	if payload.PDFURL == "" {
		return "", fmt.Errorf("invoicing service returned no pdf_url")
	}
	return payload.PDFURL, nil
}
