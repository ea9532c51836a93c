// Package upstream is the JSON-over-HTTP transport shared by the backend clients.
// Each call issues exactly one request and is never retried.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// Options configures a Client
type Options struct {
	Backend    string // label used in errors, logs and metrics
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration // used only when HTTPClient is nil; zero means none
	JSONHeader bool          // send Content-Type: application/json on every request
	Logger     logrus.FieldLogger
}

// Client talks to one backend
type Client struct {
	backend    string
	baseURL    string
	httpClient *http.Client
	jsonHeader bool
	logger     logrus.FieldLogger
}

// New creates a new Client
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		backend:    opts.Backend,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		jsonHeader: opts.JSONHeader,
		logger:     logger.WithField("backend", opts.Backend),
	}
}

// Backend returns the backend label
func (c *Client) Backend() string { return c.backend }

// Get fetches path with the given query and decodes the JSON body into out.
// Only keys present in query are sent.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	addr := c.baseURL + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("error building %s request: %w", c.backend, err)
	}

	return c.do(req, out)
}

// Post sends body as JSON to path. A nil body sends no body at all.
// The response payload, if any, is discarded.
func (c *Client) Post(ctx context.Context, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding %s request: %w", c.backend, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error building %s request: %w", c.backend, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) (err error) {
	if c.jsonHeader {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(c.backend, req.Method).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(c.backend, req.Method, outcomeOf(err)).Inc()
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"method": req.Method,
				"path":   req.URL.Path,
				"kind":   Kind(err).String(),
			}).Warn(err.Error())
		}
	}()

	c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Backend: c.backend, Err: transportCause(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &APIError{
			Backend:    c.backend,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Backend: c.backend, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Backend: c.backend, Err: err}
	}
	if err := validateValue(reflect.ValueOf(out)); err != nil {
		return &DecodeError{Backend: c.backend, Err: err}
	}

	return nil
}

// transportCause strips the *url.Error envelope so messages carry only the cause
func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

// statusText takes the reason phrase from the status line, e.g. "Not Found"
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// validateValue checks decoded structs, element by element for slices
func validateValue(v reflect.Value) error {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return validate.Struct(v.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validateValue(v.Index(i)); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
