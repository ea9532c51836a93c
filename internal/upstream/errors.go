package upstream

import (
	"errors"
	"fmt"
)

// ErrorKind tags the failure families a backend call can produce
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAPI
	KindNetwork
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// APIError is a well-formed response with a non-2xx status
type APIError struct {
	Backend    string
	StatusCode int
	StatusText string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.Backend, e.StatusCode, e.StatusText)
}

// NetworkError is a request that never completed
type NetworkError struct {
	Backend string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Failed to fetch from %s: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a response body that is not the expected shape
type DecodeError struct {
	Backend string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Invalid response from %s: %v", e.Backend, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind classifies err, looking through wrapping
func Kind(err error) ErrorKind {
	var apiErr *APIError
	var netErr *NetworkError
	var decErr *DecodeError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &decErr):
		return KindDecode
	}
	return KindUnknown
}

// Backend returns the backend label carried by err, if any
func Backend(err error) string {
	var apiErr *APIError
	var netErr *NetworkError
	var decErr *DecodeError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Backend
	case errors.As(err, &netErr):
		return netErr.Backend
	case errors.As(err, &decErr):
		return decErr.Backend
	}
	return ""
}

// Message turns err into the single display string shown on a page
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
