package secretshandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrVaultSealed is returned by the client when the server reports the
// vault as sealed.
var ErrVaultSealed = errors.New("vault sealed")

// ErrNotFound is returned by the client when the requested secret does
// not exist.
var ErrNotFound = errors.New("secret not found")

// Client is a typed HTTP client for the application secrets API.
type Client struct {
	// BaseURL is the server address, e.g. http://127.0.0.1:8080.
	BaseURL string

	Client *http.Client
}

// NewClient creates a secrets client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Client:  http.DefaultClient,
	}
}

// Put stores value as the secret named name.
func (c *Client) Put(name string, value []byte) error {
	_, err := c.do(http.MethodPut, name, bytes.NewReader(value))
	return err
}

// Get fetches the secret named name.
func (c *Client) Get(name string) ([]byte, error) {
	return c.do(http.MethodGet, name, nil)
}

// Delete removes the secret named name.
func (c *Client) Delete(name string) error {
	_, err := c.do(http.MethodDelete, name, nil)
	return err
}

func (c *Client) do(method, name string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, fmt.Sprintf("%s/api/secrets/%s", c.BaseURL, url.PathEscape(name)), body)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request vault: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read vault response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return data, nil
	case http.StatusServiceUnavailable:
		return nil, ErrVaultSealed
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		var errResp ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("vault returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("vault returned %d: %s", resp.StatusCode, string(data))
	}
}
