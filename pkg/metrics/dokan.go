package metrics

import "time"

// DokanMetrics provides observability for the Dokan call dispatcher.
//
// Every native callback is recorded once, labelled with the operation name
// (e.g. "ReadFile", "FindFiles") and the NTSTATUS it returned. This
// interface is optional - if not provided to a mount, a no-op implementation
// is used with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewDokanMetrics(`M:\`)
//	inst, err := dokan.Mount(ctx, fs, dokan.MountOptions{Metrics: m})
//
//	// Without metrics (no-op)
//	inst, err := dokan.Mount(ctx, fs, dokan.MountOptions{})
type DokanMetrics interface {
	// RecordCall records a completed callback with its operation name,
	// duration, and the status returned to the driver.
	//
	// Parameters:
	//   - operation: Callback name (e.g., "ZwCreateFile", "ReadFile")
	//   - duration: Time spent inside the dispatcher and user code
	//   - status: Canonical status name (e.g., "STATUS_SUCCESS")
	RecordCall(operation string, duration time.Duration, status string)

	// RecordCallStart increments the in-flight callback counter.
	RecordCallStart(operation string)

	// RecordCallEnd decrements the in-flight callback counter.
	RecordCallEnd(operation string)

	// RecordBytesTransferred records payload bytes moved by a read or write.
	//
	// Parameters:
	//   - direction: "read" or "write"
	//   - bytes: Number of bytes transferred
	RecordBytesTransferred(direction string, bytes int64)

	// RecordPanic counts a panic recovered at the native boundary.
	RecordPanic(operation string)

	// SetOpenHandles updates the number of handles currently open.
	SetOpenHandles(count int)
}

// NewNoopDokanMetrics returns a DokanMetrics that discards everything.
func NewNoopDokanMetrics() DokanMetrics {
	return noopDokanMetrics{}
}

// noopDokanMetrics is a no-op implementation of DokanMetrics with zero overhead.
type noopDokanMetrics struct{}

func (noopDokanMetrics) RecordCall(operation string, duration time.Duration, status string) {}
func (noopDokanMetrics) RecordCallStart(operation string)                                   {}
func (noopDokanMetrics) RecordCallEnd(operation string)                                     {}
func (noopDokanMetrics) RecordBytesTransferred(direction string, bytes int64)               {}
func (noopDokanMetrics) RecordPanic(operation string)                                       {}
func (noopDokanMetrics) SetOpenHandles(count int)                                           {}
