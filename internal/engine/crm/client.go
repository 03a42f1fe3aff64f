package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadflow/internal/engine/extract"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

// Result is the normalized outcome of a create-record call.
type Result struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client creates lead records in Zoho CRM. It does not manage token
// freshness; callers pass an access token already validated upstream.
type Client struct {
	baseURL    string
	module     string
	httpClient *http.Client
}

func NewClient(cfg config.CRMConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.zohoapis.com/crm/v2"
	}
	module := cfg.Module
	if module == "" {
		module = "Leads"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		module:     module,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type createResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

// Create POSTs {data:[record]} to the module's records endpoint and
// normalizes the response. Non-2xx statuses and unexpected bodies surface
// as upstream errors carrying the provider's message.
func (c *Client) Create(ctx context.Context, accessToken string, contact *extract.Contact) (*Result, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"data": []*extract.Contact{contact},
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "encode CRM payload", err)
	}

	url := c.baseURL + "/" + c.module
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "build CRM request", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindUpstream, "CRM unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.KindUpstream, "read CRM response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.KindUpstream,
			fmt.Sprintf("CRM returned %s: %s", resp.Status, body))
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Data) == 0 {
		return nil, errors.New(errors.KindUpstream, "CRM did not return expected response: "+string(body))
	}

	record := parsed.Data[0]
	if record.Code != "SUCCESS" {
		return nil, errors.New(errors.KindUpstream,
			fmt.Sprintf("CRM rejected record: %s (%s)", record.Message, record.Code))
	}

	message := record.Message
	if message == "" {
		message = "record added"
	}
	return &Result{
		ID:      record.Details.ID,
		Status:  strings.ToUpper(record.Code),
		Message: message,
	}, nil
}
