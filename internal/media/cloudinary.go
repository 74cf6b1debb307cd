// Package media uploads listing images to Cloudinary.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Cloudinary uploads files with an unsigned upload preset.
type Cloudinary struct {
	cloud      string
	preset     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Cloudinary uploader.
type Option func(*Cloudinary)

// WithBaseURL points uploads at another API root.
func WithBaseURL(u string) Option {
	return func(c *Cloudinary) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewCloudinary creates an uploader for a cloud name and upload preset.
func NewCloudinary(cloud, preset string, opts ...Option) *Cloudinary {
	c := &Cloudinary{
		cloud:      cloud,
		preset:     preset,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends one file and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return "", fmt.Errorf("writing preset: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/upload", c.baseURL, c.cloud)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var out uploadResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("upload failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if resp.StatusCode >= 300 || out.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("upload failed (%d): %s", resp.StatusCode, msg)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}

	slog.Debug("image uploaded", "name", name, "url", out.SecureURL)
	return out.SecureURL, nil
}
