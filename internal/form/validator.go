package form

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ValidateStruct works like validation.ValidateStruct but returns an
// InvalidArgument status carrying one field violation per failed rule.
func ValidateStruct(structPtr interface{}, rules ...*validation.FieldRules) error {
	err := validation.ValidateStruct(structPtr, rules...)
	if err == nil {
		return nil
	}

	var ve validation.Errors
	if !errors.As(err, &ve) {
		// internal errors of the rules themselves
		return status.New(codes.Internal, err.Error()).Err()
	}

	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	br := &errdetails.BadRequest{}
	for _, f := range fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f,
			Description: formatErrMsg(ve[f].Error()),
		})
	}

	st, err := status.New(codes.InvalidArgument, "Validation message").WithDetails(br)
	if err != nil {
		return status.New(codes.Internal, err.Error()).Err()
	}

	return st.Err()
}

// Violations returns the field violations of a validation error.
func Violations(err error) map[string]string {
	out := map[string]string{}
	st, ok := status.FromError(err)
	if !ok {
		return out
	}
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, fv := range br.GetFieldViolations() {
			out[fv.GetField()] = fv.GetDescription()
		}
	}
	return out
}

func formatErrMsg(s string) string {
	return ucfirst(strings.Trim(s, " .")) + "."
}

func ucfirst(str string) string {
	for i, v := range str {
		return string(unicode.ToUpper(v)) + str[i+1:]
	}
	return ""
}
