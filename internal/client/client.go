// Package client provides an HTTP client for the rent-finder API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/rent-finder/internal/detail"
	"github.com/evcraddock/rent-finder/internal/identity"
	"github.com/evcraddock/rent-finder/internal/listing"
	"github.com/evcraddock/rent-finder/internal/posting"
	"github.com/evcraddock/rent-finder/internal/thread"
)

// Client is an HTTP client for the rent-finder API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. An empty token makes anonymous requests.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string            `json:"token"`
	User  identity.SignedIn `json:"user"`
}

// Register creates an account and returns its session token.
func (c *Client) Register(email, password string) (*AuthResponse, error) {
	return c.authenticate("/api/auth/register", email, password)
}

// Login signs in and returns a session token.
func (c *Client) Login(email, password string) (*AuthResponse, error) {
	return c.authenticate("/api/auth/login", email, password)
}

func (c *Client) authenticate(path, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.post(path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the server-side session.
func (c *Client) Logout() error {
	return c.post("/api/auth/logout", nil, nil)
}

// Me returns the signed-in user with a fresh role.
func (c *Client) Me() (*identity.SignedIn, error) {
	var user identity.SignedIn
	if err := c.get("/api/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Catalogue returns the posting form choices.
func (c *Client) Catalogue() (*posting.Catalogue, error) {
	var cat posting.Catalogue
	if err := c.get("/api/catalogue", &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListOptions controls filtering and ordering for ListApartments.
type ListOptions struct {
	Filter string
	Sort   string // rentAsc, rentDesc, sizeAsc, sizeDesc (empty = stored order)
}

// ListApartments returns the dashboard state.
func (c *Client) ListApartments(opts ListOptions) (*listing.State, error) {
	path := "/api/apartments"
	params := url.Values{}
	if opts.Filter != "" {
		params.Set("filter", opts.Filter)
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var st listing.State
	if err := c.get(path, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetApartment returns the detail state of one apartment.
func (c *Client) GetApartment(id string) (*detail.State, error) {
	var st detail.State
	if err := c.get("/api/apartments/"+url.PathEscape(id), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ToggleFavorite flips the favorite flag and returns the updated detail.
func (c *Client) ToggleFavorite(id string) (*detail.State, error) {
	var st detail.State
	if err := c.post("/api/apartments/"+url.PathEscape(id)+"/favorite", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// PostApartment publishes a listing. Admin only.
func (c *Client) PostApartment(form posting.Form) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post("/api/apartments", form, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Upload sends one image and returns its hosted URL. Admin only.
func (c *Client) Upload(name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/api/uploads", &buf)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		SecureURL string `json:"secure_url"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

// ListComments returns the comment thread of an apartment.
func (c *Client) ListComments(id string) (*thread.State, error) {
	var st thread.State
	if err := c.get("/api/apartments/"+url.PathEscape(id)+"/comments", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// AddComment posts a comment, or a reply when parent is set.
func (c *Client) AddComment(id, text, parent string) error {
	body := map[string]interface{}{"text": text}
	if parent != "" {
		body["parentCommentId"] = parent
	}
	return c.post("/api/apartments/"+url.PathEscape(id)+"/comments", body, nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with an optional JSON body and decodes the
// response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp APIError
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			errResp.Status = resp.StatusCode
			return &errResp
		}
		return &APIError{Status: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status   int      `json:"-"`
	Message  string   `json:"error"`
	Fields   []string `json:"fields,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}
