package provider

import (
	"context"
	"errors"
	"strconv"

	"github.com/mrz1836/brewbar/internal/provider/rpc"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected = 4001
	CodeUnauthorized = 4100
)

// ErrorKind classifies provider failures. The set is closed.
type ErrorKind int

// Error kinds.
const (
	KindNone ErrorKind = iota
	KindUnavailable
	KindUserRejected
	KindUnauthorized
	KindProviderError
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnavailable:
		return "unavailable"
	case KindUserRejected:
		return "user_rejected"
	case KindUnauthorized:
		return "unauthorized"
	case KindProviderError:
		return "provider_error"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of a translated error. Any non-nil error that is not
// one of the specific kinds is a provider error.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, brewerr.ErrProviderUnavailable):
		return KindUnavailable
	case errors.Is(err, brewerr.ErrUserRejected):
		return KindUserRejected
	case errors.Is(err, brewerr.ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindProviderError
	}
}

// Translate maps a transport failure onto the provider error taxonomy.
// Wallet messages are carried through verbatim.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	if isTaxonomy(err) {
		return err
	}

	if errors.Is(err, rpc.ErrNoEndpoint) {
		return brewerr.ErrProviderUnavailable
	}

	var transportErr *rpc.TransportError
	if errors.As(err, &transportErr) {
		return brewerr.WithCause(
			brewerr.WithDetails(brewerr.ErrProviderUnavailable, map[string]string{"url": transportErr.URL}),
			err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return brewerr.WithCause(brewerr.ErrTimeout, err)
	}

	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case CodeUserRejected:
			return withMessage(brewerr.ErrUserRejected, rpcErr.Message, err)
		case CodeUnauthorized:
			return withMessage(brewerr.ErrUnauthorized, rpcErr.Message, err)
		default:
			return brewerr.WithDetails(
				withMessage(brewerr.ErrProviderError, rpcErr.Message, err),
				map[string]string{"code": strconv.Itoa(rpcErr.Code)})
		}
	}

	var httpErr *rpc.HTTPError
	if errors.As(err, &httpErr) {
		return withMessage(brewerr.ErrProviderError, httpErr.Error(), err)
	}

	return withMessage(brewerr.ErrProviderError, err.Error(), err)
}

func isTaxonomy(err error) bool {
	return errors.Is(err, brewerr.ErrProviderUnavailable) ||
		errors.Is(err, brewerr.ErrUserRejected) ||
		errors.Is(err, brewerr.ErrUnauthorized) ||
		errors.Is(err, brewerr.ErrProviderError) ||
		errors.Is(err, brewerr.ErrTimeout)
}

func withMessage(sentinel error, message string, cause error) error {
	if message == "" {
		return brewerr.WithCause(sentinel, cause)
	}
	return brewerr.WithCause(brewerr.WithMessage(sentinel, message), cause)
}
