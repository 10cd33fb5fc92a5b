package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"go.miloapis.com/customer-list-enroller/internal/retry"
	"go.miloapis.com/customer-list-enroller/internal/upstream"
)

const (
	// DefaultBaseURL is the Klaviyo API host.
	DefaultBaseURL = "https://a.klaviyo.com"

	apiRevision = "2023-09-15"
	serviceName = "klaviyo"
	profileType = "profile"
)

var (
	profilesResource = schema.GroupResource{Group: serviceName, Resource: "profiles"}
	listsResource    = schema.GroupResource{Group: serviceName, Resource: "lists"}
)

// Client is a minimal HTTP client for the Klaviyo profiles and lists API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retry      retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryPolicy sets how often list membership requests are attempted.
// Profile creation is never retried.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// NewClient creates a new Client.
// token is the private API key (without the "Klaviyo-API-Key " prefix).
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
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

func (c *Client) do(ctx context.Context, method, path string, body any) (HTTPResponse, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return HTTPResponse{}, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(buf)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return HTTPResponse{}, fmt.Errorf("parse baseURL: %w", err)
	}
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return HTTPResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Revision", apiRevision)
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return HTTPResponse{}, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	respBytes, err := upstream.ReadBody(res.Body)
	if err != nil {
		return HTTPResponse{}, fmt.Errorf("read response body: %w", err)
	}

	return HTTPResponse{
		StatusCode: res.StatusCode,
		Body:       respBytes,
	}, nil
}

// CreateProfile creates a profile and returns it with the id Klaviyo assigned.
// Anything other than 201 Created is an error.
func (c *Client) CreateProfile(ctx context.Context, attrs ProfileAttributes) (Profile, error) {
	const operation = "create profile"

	// Creating a profile is not idempotent.
	return retry.Do(ctx, retry.NoRetry(), func() (Profile, error) {
		httpResp, err := c.do(ctx, http.MethodPost, "/api/profiles/", profileDocument{
			Data: Profile{Type: profileType, Attributes: attrs},
		})
		if err != nil {
			return Profile{}, upstream.NewError(serviceName, operation, 0, nil, err)
		}
		if httpResp.StatusCode != http.StatusCreated {
			var cause error
			switch httpResp.StatusCode {
			case http.StatusConflict:
				cause = apierrors.NewConflict(profilesResource, attrs.Email,
					fmt.Errorf("klaviyo create conflict: %s", string(httpResp.Body)))
			case http.StatusBadRequest:
				cause = apierrors.NewBadRequest(fmt.Sprintf("klaviyo create bad request: %s", string(httpResp.Body)))
			}
			return Profile{}, upstream.NewError(serviceName, operation, httpResp.StatusCode, httpResp.Body, cause)
		}

		var out profileDocument
		if err := json.Unmarshal(httpResp.Body, &out); err != nil {
			return Profile{}, upstream.NewError(serviceName, operation, httpResp.StatusCode, httpResp.Body,
				fmt.Errorf("parse klaviyo create profile response: %w", err))
		}
		if strings.TrimSpace(out.Data.ID) == "" {
			return Profile{}, upstream.NewError(serviceName, operation, httpResp.StatusCode, httpResp.Body,
				errors.New("klaviyo create profile response has no id"))
		}
		return out.Data, nil
	})
}

// AddProfileToList subscribes profileID to listID. It reports true only when
// Klaviyo answers 204 No Content.
func (c *Client) AddProfileToList(ctx context.Context, profileID, listID string) (bool, error) {
	const operation = "add profile to list"

	if strings.TrimSpace(profileID) == "" {
		return false, fmt.Errorf("profileID must not be empty")
	}
	if strings.TrimSpace(listID) == "" {
		return false, fmt.Errorf("listID must not be empty")
	}

	path := fmt.Sprintf("/api/lists/%s/relationships/profiles/", listID)
	payload := relationshipDocument{
		Data: []resourceIdentifier{{Type: profileType, ID: profileID}},
	}

	return retry.Do(ctx, c.retry, func() (bool, error) {
		httpResp, err := c.do(ctx, http.MethodPost, path, payload)
		if err != nil {
			return false, upstream.NewError(serviceName, operation, 0, nil, err)
		}
		if httpResp.StatusCode == http.StatusNoContent {
			return true, nil
		}

		var cause error
		if httpResp.StatusCode == http.StatusNotFound {
			cause = apierrors.NewNotFound(listsResource, listID)
		}
		uerr := upstream.NewError(serviceName, operation, httpResp.StatusCode, httpResp.Body, cause)
		if retry.RetryableStatus(httpResp.StatusCode) {
			return false, uerr
		}
		return false, retry.Permanent(uerr)
	})
}
