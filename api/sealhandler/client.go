package sealhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/covault/covault/seal"
)

// Client is a typed HTTP client for the admin seal API, used by the
// operator CLI and by tests.
type Client struct {
	// BaseURL is the server address, e.g. http://127.0.0.1:8080.
	BaseURL string

	Client *http.Client
}

// NewClient creates an admin client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Client:  http.DefaultClient,
	}
}

// Initialize asks the server to initialize the vault and returns the
// one-time share tokens.
func (c *Client) Initialize(totalShares, threshold int) (*InitializeResponse, error) {
	var resp InitializeResponse
	err := c.do(http.MethodPost, "/admin/initialize", InitializeRequest{
		TotalShares: totalShares,
		Threshold:   threshold,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unseal submits one encoded share token and returns the resulting
// seal status.
func (c *Client) Unseal(shareToken string) (seal.Status, error) {
	var status seal.Status
	err := c.do(http.MethodPost, "/admin/unseal", UnsealRequest{Share: shareToken}, &status)
	return status, err
}

// Seal seals the vault.
func (c *Client) Seal() (seal.Status, error) {
	var status seal.Status
	err := c.do(http.MethodPost, "/admin/seal", nil, &status)
	return status, err
}

// Status fetches the current seal status.
func (c *Client) Status() (seal.Status, error) {
	var status seal.Status
	err := c.do(http.MethodGet, "/admin/status", nil, &status)
	return status, err
}

func (c *Client) do(method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request vault: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read vault response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("vault returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("vault returned %d: %s", resp.StatusCode, string(data))
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("could not parse vault response: %w", err)
		}
	}
	return nil
}
