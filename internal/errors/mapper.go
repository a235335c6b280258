// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/utils/pagination"
)

// Rejection is an input the caller must fix. Nothing is persisted when one is returned.
type Rejection struct {
	// Reason is machine-readable, e.g. "self_target".
	Reason  string
	Message string
	// Precondition marks rejections caused by the caller's state rather than the request.
	Precondition bool
}

func (r *Rejection) Error() string { return r.Message }

// Reject builds an InvalidArgument-class rejection.
func Reject(reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// RejectState builds a FailedPrecondition-class rejection.
func RejectState(reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg, Precondition: true}
}

// ErrProfileIncomplete is returned when the requester cannot use matching yet.
var ErrProfileIncomplete = RejectState("profile_incomplete", "complete your profile first")

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var (
		rej  *Rejection
		verr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &rej):
		code := codes.InvalidArgument
		if rej.Precondition {
			code = codes.FailedPrecondition
		}
		return withReason(code, rej.Message, rej.Reason)

	case errors.As(err, &verr):
		return withReason(codes.InvalidArgument, describe(verr), "invalid_request")

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, pagination.ErrInvalidToken):
		return withReason(codes.InvalidArgument, err.Error(), "invalid_pagination_token")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// Reason extracts the machine-readable reason attached by Map, or "".
func Reason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			return s.GetFields()["reason"].GetStringValue()
		}
	}
	return ""
}

// describe renders validation failures as "field: rule" pairs using the JSON field names.
func describe(verr validator.ValidationErrors) string {
	parts := make([]string, 0, len(verr))
	for _, fe := range verr {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func withReason(code codes.Code, msg, reason string) error {
	st := status.New(code, msg)
	detail, err := structpb.NewStruct(map[string]any{"reason": reason})
	if err != nil {
		return st.Err()
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		st = withDetail
	}
	return st.Err()
}
