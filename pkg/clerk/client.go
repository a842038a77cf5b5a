package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

// Client represents a Clerk Backend API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Clerk client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// ListUsers returns users of the instance, newest first unless OrderBy says otherwise.
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) ([]User, error) {
	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		query.Set("order_by", params.OrderBy)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "users", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users response: %w", err)
	}
	return users, nil
}

// GetUser returns a single user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserNotFound
	}

	body, err := c.doRequest(ctx, http.MethodGet, "users/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user response: %w", err)
	}
	return &user, nil
}

// doRequest performs an authenticated request against the Backend API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values) ([]byte, error) {
	endpointURL := fmt.Sprintf("%s/%s", strings.TrimRight(c.config.BaseURL, "/"), endpoint)
	if len(query) > 0 {
		endpointURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Accept", "application/json")

	logger.Debug("Clerk API request", map[string]interface{}{
		"method":   method,
		"endpoint": endpoint,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := http.StatusText(resp.StatusCode)
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && len(errResp.Errors) > 0 {
			message = errResp.Errors[0].Message
		}

		logger.Warn("Clerk API error", map[string]interface{}{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
			"message":  message,
		})

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, message)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, message)
		default:
			return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, message)
		}
	}

	return body, nil
}
