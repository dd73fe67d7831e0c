//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
	"github.com/oshokin/emergency-dispatch/internal/events"
)

// Client wraps the dispatch server HTTP API with convenience helpers.
type Client struct {
	// baseURL is the server address, e.g. "http://dispatch.example.com:8080".
	baseURL string
	// httpClient performs the underlying requests.
	httpClient *http.Client
	// token is the bearer token attached to authenticated calls.
	token string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithToken sets the bearer token used for authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("server URL must be provided")

// APIError is a typed failure returned by the dispatch server.
type APIError struct {
	// StatusCode is the HTTP status of the failed request.
	StatusCode int
	// Kind is the stable wire name of the error class.
	Kind string
	// Message is the human-readable failure description.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewClient builds a client for the dispatch server at baseURL.
// Note: this uses plain HTTP unless the URL carries an https scheme; deploy
// on a trusted network or terminate TLS in a proxy.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.DefaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// SetToken replaces the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// tokenGrant is the response of the token issuance endpoint.
type tokenGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticate exchanges the bootstrap secret for a bearer token and stores
// it on the client for subsequent calls.
func (c *Client) Authenticate(ctx context.Context, identity, secret string) (string, error) {
	var grant tokenGrant

	err := c.call(ctx, http.MethodPost, "/api/tokens", map[string]string{
		"identity": identity,
		"secret":   secret,
	}, &grant)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	c.token = grant.Token

	return grant.Token, nil
}

// ReportEmergency records a new emergency on the server.
func (c *Client) ReportEmergency(
	ctx context.Context,
	description, location, emergencyType string,
	priority int,
) (*dispatch.Emergency, error) {
	var emergency dispatch.Emergency

	err := c.call(ctx, http.MethodPost, "/api/emergencies", map[string]any{
		"description": description,
		"location":    location,
		"type":        emergencyType,
		"priority":    priority,
	}, &emergency)
	if err != nil {
		return nil, fmt.Errorf("report emergency: %w", err)
	}

	return &emergency, nil
}

// AssignResponders assigns the responder batch to the emergency.
func (c *Client) AssignResponders(ctx context.Context, emergencyID uint64, responderIDs []string) (*dispatch.Emergency, error) {
	var emergency dispatch.Emergency

	path := fmt.Sprintf("/api/emergencies/%d/responders", emergencyID)

	err := c.call(ctx, http.MethodPost, path, map[string]any{
		"responder_ids": responderIDs,
	}, &emergency)
	if err != nil {
		return nil, fmt.Errorf("assign responders: %w", err)
	}

	return &emergency, nil
}

// AllocationResult pairs the updated emergency with the resource it drew from.
type AllocationResult struct {
	Emergency *dispatch.Emergency `json:"emergency"`
	Resource  *dispatch.Resource  `json:"resource"`
}

// AllocateResources draws quantity units of the resource for the emergency.
func (c *Client) AllocateResources(ctx context.Context, emergencyID, resourceID, quantity uint64) (*AllocationResult, error) {
	var result AllocationResult

	path := fmt.Sprintf("/api/emergencies/%d/resources", emergencyID)

	err := c.call(ctx, http.MethodPost, path, map[string]any{
		"resource_id": resourceID,
		"quantity":    quantity,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("allocate resources: %w", err)
	}

	return &result, nil
}

// UpdateEmergencyStatus moves the emergency to the given status.
func (c *Client) UpdateEmergencyStatus(ctx context.Context, emergencyID uint64, status string) (*dispatch.Emergency, error) {
	var emergency dispatch.Emergency

	path := fmt.Sprintf("/api/emergencies/%d/status", emergencyID)

	err := c.call(ctx, http.MethodPut, path, map[string]string{
		"status": status,
	}, &emergency)
	if err != nil {
		return nil, fmt.Errorf("update emergency status: %w", err)
	}

	return &emergency, nil
}

// RegisterResponder creates a responder record on the server.
func (c *Client) RegisterResponder(
	ctx context.Context,
	id, name, responderType, location string,
) (*dispatch.Responder, error) {
	var responder dispatch.Responder

	err := c.call(ctx, http.MethodPost, "/api/responders", map[string]string{
		"id":       id,
		"name":     name,
		"type":     responderType,
		"location": location,
	}, &responder)
	if err != nil {
		return nil, fmt.Errorf("register responder: %w", err)
	}

	return &responder, nil
}

// AddResource registers a new resource pool on the server.
func (c *Client) AddResource(ctx context.Context, name string, quantity uint64, location string) (*dispatch.Resource, error) {
	var resource dispatch.Resource

	err := c.call(ctx, http.MethodPost, "/api/resources", map[string]any{
		"name":     name,
		"quantity": quantity,
		"location": location,
	}, &resource)
	if err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	return &resource, nil
}

// AuthorizePersonnel grants the identity coordination rights.
func (c *Client) AuthorizePersonnel(ctx context.Context, identity string) error {
	err := c.call(ctx, http.MethodPost, "/api/personnel", map[string]string{
		"identity": identity,
	}, nil)
	if err != nil {
		return fmt.Errorf("authorize personnel: %w", err)
	}

	return nil
}

// Emergency retrieves the emergency record by ID.
func (c *Client) Emergency(ctx context.Context, id uint64) (*dispatch.Emergency, error) {
	var emergency dispatch.Emergency

	path := "/api/emergencies/" + strconv.FormatUint(id, 10)

	if err := c.call(ctx, http.MethodGet, path, nil, &emergency); err != nil {
		return nil, fmt.Errorf("get emergency: %w", err)
	}

	return &emergency, nil
}

// AssignedResponders retrieves the emergency's assigned responder identities.
func (c *Client) AssignedResponders(ctx context.Context, id uint64) ([]string, error) {
	var response struct {
		ResponderIDs []string `json:"responder_ids"`
	}

	path := fmt.Sprintf("/api/emergencies/%d/responders", id)

	if err := c.call(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("get assigned responders: %w", err)
	}

	return response.ResponderIDs, nil
}

// Responder retrieves the responder record by identity.
func (c *Client) Responder(ctx context.Context, identity string) (*dispatch.Responder, error) {
	var responder dispatch.Responder

	if err := c.call(ctx, http.MethodGet, "/api/responders/"+identity, nil, &responder); err != nil {
		return nil, fmt.Errorf("get responder: %w", err)
	}

	return &responder, nil
}

// Resource retrieves the resource record by ID.
func (c *Client) Resource(ctx context.Context, id uint64) (*dispatch.Resource, error) {
	var resource dispatch.Resource

	path := "/api/resources/" + strconv.FormatUint(id, 10)

	if err := c.call(ctx, http.MethodGet, path, nil, &resource); err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}

	return &resource, nil
}

// Events retrieves the most recent notifications, up to limit.
// A limit of zero returns the full log.
func (c *Client) Events(ctx context.Context, limit int) ([]events.Event, error) {
	var response struct {
		Events []events.Event `json:"events"`
	}

	path := "/api/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	if err := c.call(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}

	return response.Events, nil
}

// call performs one JSON request against the server and decodes the response
// into out when it is non-nil. Non-2xx responses become *APIError values.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var payload bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("call dispatch server: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		var remote struct {
			Kind  string `json:"kind"`
			Error string `json:"error"`
		}

		if decodeErr := json.NewDecoder(response.Body).Decode(&remote); decodeErr != nil || remote.Kind == "" {
			return &APIError{
				StatusCode: response.StatusCode,
				Kind:       "INTERNAL",
				Message:    http.StatusText(response.StatusCode),
			}
		}

		return &APIError{
			StatusCode: response.StatusCode,
			Kind:       remote.Kind,
			Message:    remote.Error,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
