package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nmarin/marketloop-backend/pkg/config"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

const (
	storageEndpoint = "https://storage.googleapis.com"
	pingTimeout     = 5 * time.Second
)

type Client struct {
	httpClient  *http.Client
	bucket      string
	publicURL   string
	tokenSource *tokenSource
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var ts *tokenSource
	var err error
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		bytes, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(bytes))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:  httpClient,
		bucket:      cfg.BucketName,
		publicURL:   strings.TrimSuffix(cfg.PublicURL, "/"),
		tokenSource: ts,
	}
	if client.publicURL == "" {
		client.publicURL = storageEndpoint
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}

	return client, nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// ObjectURL returns the public URL media consumers use for the object.
func (c *Client) ObjectURL(objectKey string) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", c.publicURL, c.bucket, objectKey)
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf(
		"%s/storage/v1/b/%s/o?maxResults=1",
		storageEndpoint,
		url.PathEscape(c.bucket),
	)

	resp, err := c.do(ctx, http.MethodGet, u, "", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

// UploadObject writes the object with the given key and content type and
// returns its public URL.
func (c *Client) UploadObject(ctx context.Context, objectKey, contentType string, body io.Reader) (string, error) {
	if c == nil || c.tokenSource == nil {
		return "", errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(objectKey) == "" {
		return "", errors.New("object key is required")
	}

	u := fmt.Sprintf(
		"%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		storageEndpoint,
		url.PathEscape(c.bucket),
		url.QueryEscape(objectKey),
	)

	resp, err := c.do(ctx, http.MethodPost, u, contentType, body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("gcs upload failed", resp)
	}
	return c.ObjectURL(objectKey), nil
}

// DeleteObject removes the object. A missing object is not an error so
// deletion sweeps can retry safely.
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(objectKey) == "" {
		return errors.New("object key is required")
	}

	u := fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s",
		storageEndpoint,
		url.PathEscape(c.bucket),
		url.PathEscape(objectKey),
	)

	resp, err := c.do(ctx, http.MethodDelete, u, "", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError("gcs delete failed", resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u, contentType string, body io.Reader) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

func statusError(msg string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("%s: %s: %s", msg, resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("%s: %s", msg, resp.Status)
}
