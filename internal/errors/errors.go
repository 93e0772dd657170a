package gerr

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ReportNotFound         = status.Error(codes.NotFound, "report not found")
	ActivityReportNotFound = status.Error(codes.NotFound, "activity report not found")
	UnknownSource          = status.Error(codes.NotFound, "unknown report source")
	UnknownDimension       = status.Error(codes.InvalidArgument, "unknown revenue dimension")
	BadReportId            = status.Error(codes.InvalidArgument, "report id must be a positive integer")
	BadRequestBody         = status.Error(codes.InvalidArgument, "malformed request body")
	TooManyRequests        = status.Error(codes.ResourceExhausted, "too many requests, please slow down")
)
