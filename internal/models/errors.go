package models

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound = status.Errorf(codes.NotFound, "not found")

	// ErrAuthentication is the generic error surfaced for bad credentials or an
	// invalid/expired connection reference.
	ErrAuthentication = status.Errorf(codes.Unauthenticated, "authentication failed")
	ErrRegistration   = status.Errorf(codes.Aborted, "registration failed")
	// ErrConfiguration is raised when no registration host can be discovered.
	ErrConfiguration    = status.Errorf(codes.FailedPrecondition, "service configuration error")
	ErrNotAuthenticated = status.Errorf(codes.Unauthenticated, "not authenticated")
	ErrInvalidPayload   = status.Errorf(codes.InvalidArgument, "invalid payload")
)

// Code returns the status code carried by err or by any error it wraps.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	type grpcStatus interface{ GRPCStatus() *status.Status }
	if s, ok := err.(grpcStatus); ok {
		return s.GRPCStatus().Code()
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if inner := u.Unwrap(); inner != nil {
			return Code(inner)
		}
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if c := Code(e); c != codes.Unknown {
				return c
			}
		}
	}
	return codes.Unknown
}
