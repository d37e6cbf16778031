package authprovider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/nmarin/marketloop-backend/pkg/config"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// Client talks to the identity provider's admin API. The only operation
// the platform needs is removing the provider-side identity when an
// account is deleted here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	enabled    bool
}

type IdentityDeleter interface {
	DeleteIdentity(ctx context.Context, userID uuid.UUID) error
}

func NewClient(cfg config.AuthConfig, logg *logger.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.AdminTimeout},
		baseURL:    strings.TrimSuffix(cfg.AdminURL, "/"),
		apiKey:     cfg.AdminAPIKey,
		enabled:    cfg.AdminURL != "",
	}
	if !c.enabled && logg != nil {
		logg.Warn(context.Background(), "auth provider admin url not configured, identity deletion disabled")
	}
	return c
}

// DeleteIdentity removes the user's identity at the provider. When the
// admin endpoint is not configured this is a no-op, and a provider-side
// 404 is treated as already deleted.
func (c *Client) DeleteIdentity(ctx context.Context, userID uuid.UUID) error {
	if c == nil {
		return errors.New("auth provider client not initialized")
	}
	if !c.enabled {
		return nil
	}

	u := fmt.Sprintf("%s/admin/users/%s", c.baseURL, url.PathEscape(userID.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting provider identity: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("provider identity deletion failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("provider identity deletion failed: %s", resp.Status)
}
