package signup

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/atinyakov/signupform/internal/models"
)

const (
	apiSignup  = "/signup"
	apiCheckID = "/getCheckID"
)

// ErrRateLimited is returned when the server throttles id number lookups.
var ErrRateLimited = errors.New("too many id number lookups")

// RejectedError is returned by Submit when the server refuses the form.
// Fields maps form field keys to the server's messages.
type RejectedError struct {
	Fields map[Field]string
}

func (e *RejectedError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	return "signup rejected: " + strings.Join(keys, ", ")
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// APIClient talks to the signup server.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewAPIClient returns a client for the server at baseURL. Redirects are not
// followed so that the signup outcome is read from the first response.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := *httpClient
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &APIClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &c}
}

// NewHTTPClient returns an HTTP client trusting the CA certificate in caFile.
// An empty caFile uses the system roots.
func NewHTTPClient(caFile string) (*http.Client, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	if caFile == "" {
		return client, nil
	}

	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	client.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return client, nil
}

// IDTaken asks the server whether idNumber is already registered.
func (c *APIClient) IDTaken(ctx context.Context, idNumber string) (bool, error) {
	endpoint := c.BaseURL + apiCheckID + "?" + url.Values{string(IDNumber): {idNumber}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("check id: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return false, ErrRateLimited
	default:
		return false, serverError(resp)
	}

	var body models.CheckIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return body.IDNumber == idNumber, nil
}

// Submit posts form to the server. A refused form yields *RejectedError.
func (c *APIClient) Submit(ctx context.Context, form Form) (models.Identity, error) {
	values := url.Values{}
	for _, f := range Fields {
		values.Set(string(f), form.Value(f))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+apiSignup, strings.NewReader(values.Encode()))
	if err != nil {
		return models.Identity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.Identity{}, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var identity models.Identity
		if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
			return models.Identity{}, fmt.Errorf("failed to decode response: %w", err)
		}
		return identity, nil
	case http.StatusUnprocessableEntity:
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return models.Identity{}, fmt.Errorf("failed to decode response: %w", err)
		}
		rejected := &RejectedError{Fields: make(map[Field]string, len(body.Fields))}
		for key, msg := range body.Fields {
			rejected.Fields[Field(strings.TrimSuffix(key, "Error"))] = msg
		}
		return models.Identity{}, rejected
	default:
		return models.Identity{}, serverError(resp)
	}
}

func serverError(resp *http.Response) error {
	var body errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server error: %d %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server error: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
