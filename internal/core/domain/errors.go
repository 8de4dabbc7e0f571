package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Client-side rule rejections. None of these involve a network call.
var (
	ErrNotAuthenticated     = errors.New("please sign in to continue")
	ErrNotEntitled          = errors.New("custom scraping is available for paid plans only")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrInvalidPlatform      = errors.New("invalid platform")
	ErrSubscriptionInFlight = errors.New("a subscription change for this plan is already in progress")
)

// Scrape workflow outcomes.
var (
	ErrScrapeNotFound    = errors.New("scrape request not found")
	ErrScrapeFailed      = errors.New("scraping failed")
	ErrStatusUnavailable = errors.New("failed to get scrape status, please check your scrape history")
	ErrCancelled         = errors.New("cancelled by user")
	ErrAlreadyTerminal   = errors.New("only pending or processing requests can be cancelled")
)

// ErrUnauthorized matches any backend 401 response via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// DefaultErrorDetail is used when an error response carries no parseable detail.
const DefaultErrorDetail = "An error occurred"

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return e.Detail
}

// Is lets callers test for ErrUnauthorized without inspecting status codes.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is a local pre-submission rejection.
type ValidationError struct {
	Field    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "\n")
}

// ScrapeFailure carries the message reported by the backend for a failed job.
type ScrapeFailure struct {
	RequestID string
	Message   string
}

func (e *ScrapeFailure) Error() string {
	return e.Message
}

func (e *ScrapeFailure) Unwrap() error {
	return ErrScrapeFailed
}

// Message renders any error from the client as a single human-readable line
// suitable for showing to the person who initiated the action.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var failure *ScrapeFailure
	if errors.As(err, &failure) {
		return failure.Message
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return "Unable to reach the DataFlow API. Please check your connection and try again."
	}
	return err.Error()
}
