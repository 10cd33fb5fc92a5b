package boulevard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.miloapis.com/customer-list-enroller/internal/retry"
	"go.miloapis.com/customer-list-enroller/internal/upstream"
)

// DefaultEndpoint is the Boulevard admin GraphQL endpoint.
const DefaultEndpoint = "https://dashboard.boulevard.io/api/2020-01/admin"

const serviceName = "boulevard"

// Client is a minimal client for the Boulevard admin GraphQL API.
type Client struct {
	endpoint   string
	signer     *Signer
	httpClient *http.Client
	retry      retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the admin API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryPolicy sets how often queries are attempted.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// NewClient creates a Client that signs every request with signer.
func NewClient(signer *Signer, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		signer:   signer,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry: retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListLocations returns up to 20 locations in the order the API returns them.
// Callers treat that order as priority; Boulevard does not document it.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	query, err := renderQuery(locationsQuery, locationsVars{First: locationsPageSize})
	if err != nil {
		return nil, err
	}

	var data locationsData
	if err := c.query(ctx, "list locations", query, &data); err != nil {
		return nil, err
	}

	out := make([]Location, 0, len(data.Locations.Edges))
	for _, edge := range data.Locations.Edges {
		out = append(out, edge.Node)
	}
	return out, nil
}

// GetAppointments returns up to 5 appointments of clientID at locationID.
// An empty slice means the client never booked there.
func (c *Client) GetAppointments(ctx context.Context, locationID, clientID string) ([]Appointment, error) {
	query, err := renderQuery(appointmentsQuery, appointmentsVars{
		First:      appointmentsPageSize,
		ClientID:   clientID,
		LocationID: locationID,
	})
	if err != nil {
		return nil, err
	}

	var data appointmentsData
	if err := c.query(ctx, "get appointments", query, &data); err != nil {
		return nil, err
	}

	out := make([]Appointment, 0, len(data.Appointments.Edges))
	for _, edge := range data.Appointments.Edges {
		out = append(out, edge.Node)
	}
	return out, nil
}

func (c *Client) query(ctx context.Context, operation, query string, out any) error {
	_, err := retry.Do(ctx, c.retry, func() (struct{}, error) {
		return struct{}{}, c.doQuery(ctx, operation, query, out)
	})
	return err
}

// doQuery performs a single attempt. Errors that a retry cannot fix are
// marked permanent.
func (c *Client) doQuery(ctx context.Context, operation, query string, out any) error {
	buf, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal graphql payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return retry.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.signer.Credential())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return upstream.NewError(serviceName, operation, 0, nil, fmt.Errorf("do request: %w", err))
	}
	defer res.Body.Close()

	body, err := upstream.ReadBody(res.Body)
	if err != nil {
		return upstream.NewError(serviceName, operation, res.StatusCode, nil, fmt.Errorf("read response body: %w", err))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		uerr := upstream.NewError(serviceName, operation, res.StatusCode, body, nil)
		if retry.RetryableStatus(res.StatusCode) {
			return uerr
		}
		return retry.Permanent(uerr)
	}

	var env graphQLEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return retry.Permanent(upstream.NewError(serviceName, operation, res.StatusCode, body,
			fmt.Errorf("parse graphql response: %w", err)))
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return retry.Permanent(upstream.NewError(serviceName, operation, res.StatusCode, nil,
			errors.New(strings.Join(msgs, "; "))))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return retry.Permanent(upstream.NewError(serviceName, operation, res.StatusCode, body,
			errors.New("graphql response has no data")))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return retry.Permanent(upstream.NewError(serviceName, operation, res.StatusCode, body,
			fmt.Errorf("parse graphql data: %w", err)))
	}
	return nil
}
