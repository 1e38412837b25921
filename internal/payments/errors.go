package payments

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnimplemented    = errors.New("unimplemented")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrInternal         = errors.New("internal error")
)

func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsInvalidArgument(err error) bool  { return errors.Is(err, ErrInvalidArgument) }
func IsUnimplemented(err error) bool    { return errors.Is(err, ErrUnimplemented) }
func IsUnauthenticated(err error) bool  { return errors.Is(err, ErrUnauthenticated) }
func IsDeadlineExceeded(err error) bool { return errors.Is(err, ErrDeadlineExceeded) }

// kindOf maps a Firestore/provider error onto one of the sentinel kinds so
// callers can branch with errors.Is instead of matching message strings.
func kindOf(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return ErrInvalidArgument
	case codes.Unauthenticated:
		return ErrUnauthenticated
	case codes.DeadlineExceeded:
		return ErrDeadlineExceeded
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrDeadlineExceeded
	}
	return ErrInternal
}
