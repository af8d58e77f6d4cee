// Package lookup resolves barcodes to product names through the Open Food Facts API.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrProductNotFound is returned when the service has no record for a barcode.
var ErrProductNotFound = errors.New("product not found")

// nameField is the only field requested from the product endpoint.
const nameField = "product_name"

// Client is an Open Food Facts API v2 client.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient returns a client rooted at baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
	}
}

type productResponse struct {
	Code          string         `json:"code"`
	Status        int            `json:"status"`
	StatusVerbose string         `json:"status_verbose"`
	Product       map[string]any `json:"product"`
}

// ProductName returns the display name for barcode. It returns "" with a nil error when
// the product exists without a name, and ErrProductNotFound when it does not exist.
func (c *Client) ProductName(ctx context.Context, barcode string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/product/%s?fields=%s", c.baseURL, url.PathEscape(barcode), nameField)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get product %s: %w", barcode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: %s", ErrProductNotFound, barcode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("get product %s: unexpected status %d: %s", barcode, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out productResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode product %s: %w", barcode, err)
	}
	if out.Status == 0 || out.Product == nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrProductNotFound, barcode, out.StatusVerbose)
	}
	name, _ := out.Product[nameField].(string)
	return strings.TrimSpace(name), nil
}
