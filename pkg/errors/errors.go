package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Broker / market data errors

var (
	// ErrNoAccessToken indicates no broker access token is configured.
	// This is a suspend condition for the polling worker, not a failure.
	ErrNoAccessToken = errors.New("no broker access token")

	// ErrProviderUnavailable indicates the quote/chain provider request failed
	ErrProviderUnavailable = errors.New("market data provider unavailable")

	// ErrEmptyChain indicates the provider returned no option chain rows
	ErrEmptyChain = errors.New("empty option chain")

	// ErrChainUnreliable indicates the chain is too thin to analyze safely
	ErrChainUnreliable = errors.New("option chain data unreliable")

	// ErrInvalidSymbol indicates an untracked index symbol
	ErrInvalidSymbol = errors.New("invalid index symbol")

	// ErrRateLimitExceeded indicates the broker API rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
