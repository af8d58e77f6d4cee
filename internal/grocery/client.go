// Package grocery is a client for the OurGroceries shared shopping list service.
package grocery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
)

const (
	sessionCookie = "ourgroceries-auth"

	commandInsertItem  = "insertItem"
	commandGetOverview = "getOverview"
)

var teamIDPattern = regexp.MustCompile(`g_teamId = "(.*)";`)

var (
	// ErrInvalidLogin is returned when the service does not issue a session cookie.
	ErrInvalidLogin = errors.New("invalid username or password")
	// ErrNotLoggedIn is returned when a list call is made before Login.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Item is a list entry to insert.
type Item struct {
	Name string
	// AutoCategory lets the service pick the aisle. When false, Category is sent as is.
	AutoCategory bool
	Category     string
	Note         string
}

// List is a shopping list summary.
type List struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ActiveCount int    `json:"activeCount"`
}

// Client talks to the list service with a cookie session.
type Client struct {
	baseURL  *url.URL
	username string
	password string
	http     *http.Client
	teamID   string
}

// NewClient returns a client for baseURL. Login must be called before any list operation.
func NewClient(baseURL, username, password string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL:  u,
		username: username,
		password: password,
		http:     &http.Client{Jar: jar},
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// Login establishes a session and resolves the account's team id.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"emailAddress": {c.username},
		"password":     {c.password},
		"action":       {"sign-in"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/sign-in"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if !c.hasSession() {
		return ErrInvalidLogin
	}

	teamID, err := c.fetchTeamID(ctx)
	if err != nil {
		return err
	}
	c.teamID = teamID
	return nil
}

func (c *Client) hasSession() bool {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == sessionCookie && ck.Value != "" {
			return true
		}
	}
	return false
}

func (c *Client) fetchTeamID(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/your-lists/"), nil)
	if err != nil {
		return "", fmt.Errorf("build lists request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get lists page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get lists page: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read lists page: %w", err)
	}
	m := teamIDPattern.FindSubmatch(body)
	if m == nil {
		return "", errors.New("team id not found on lists page")
	}
	return string(m[1]), nil
}

// AddItem inserts item into the list identified by listID.
func (c *Client) AddItem(ctx context.Context, listID string, item Item) error {
	payload := map[string]any{
		"listId": listID,
		"value":  item.Name,
	}
	if !item.AutoCategory {
		payload["categoryId"] = item.Category
	}
	if item.Note != "" {
		payload["note"] = item.Note
	}
	if err := c.command(ctx, commandInsertItem, payload, nil); err != nil {
		return fmt.Errorf("insert %q into list %s: %w", item.Name, listID, err)
	}
	return nil
}

// Lists returns the account's shopping lists.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	var out struct {
		ShoppingLists []List `json:"shoppingLists"`
	}
	if err := c.command(ctx, commandGetOverview, nil, &out); err != nil {
		return nil, fmt.Errorf("get overview: %w", err)
	}
	return out.ShoppingLists, nil
}

func (c *Client) command(ctx context.Context, command string, fields map[string]any, out any) error {
	if c.teamID == "" {
		return ErrNotLoggedIn
	}
	payload := map[string]any{
		"command": command,
		"teamId":  c.teamID,
	}
	for k, v := range fields {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", command, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/your-lists/"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", command, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", command, err)
	}
	return nil
}
