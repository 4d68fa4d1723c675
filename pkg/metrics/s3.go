package metrics

import "time"

// S3Metrics provides observability for the S3-backed volume.
//
// Implementations can collect metrics about S3 API calls (ListObjectsV2,
// HeadObject, GetObject), their latency, errors and the bytes fetched.
type S3Metrics interface {
	// ObserveOperation records a completed S3 API call.
	//
	// Parameters:
	//   - operation: S3 operation name (e.g., "GetObject")
	//   - duration: Time taken including rate limiter wait
	//   - err: Error if the call failed, nil if successful
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes fetched from S3.
	RecordBytes(operation string, bytes int64)

	// RecordThrottled counts a request that had to wait for the rate limiter.
	RecordThrottled(operation string)
}

// NewNoopS3Metrics returns an S3Metrics that discards everything.
func NewNoopS3Metrics() S3Metrics {
	return noopS3Metrics{}
}

type noopS3Metrics struct{}

func (noopS3Metrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopS3Metrics) RecordBytes(operation string, bytes int64)                            {}
func (noopS3Metrics) RecordThrottled(operation string)                                     {}
