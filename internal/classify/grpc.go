package classify

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// grpcCode returns the status code when err carries a gRPC status.
func grpcCode(err error) (codes.Code, bool) {
	s, ok := status.FromError(err)
	if !ok {
		return codes.OK, false
	}
	return s.Code(), true
}

// grpcField returns the first field violation of a BadRequest detail.
func grpcField(err error) string {
	s, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range s.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			if f := v.GetField(); f != "" {
				return f
			}
		}
	}
	return ""
}
