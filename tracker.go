package rangegrab

import "context"

// UploadTarget describes where the artifacts of a batch go.
type UploadTarget struct {
	// URL opens the destination bucket, e.g. "s3://bucket?region=us-east-1".
	// Empty selects the uploader's default bucket.
	URL string `json:"url"`
	// Prefix is prepended to every uploaded object key.
	Prefix string `json:"prefix"`
}

// Tracker hands out batches and receives completion reports.
type Tracker interface {
	// RequestBatch returns the name of the next batch to work on.
	// Returns ENOTFOUND if the tracker has no work right now.
	RequestBatch(ctx context.Context) (string, error)

	// UploadTarget returns the destination for a finished batch.
	UploadTarget(ctx context.Context, batch string) (UploadTarget, error)

	// Done marks a batch complete after its artifacts were uploaded.
	Done(ctx context.Context, report *Report) error

	// Fail reports a batch that exhausted its retries.
	Fail(ctx context.Context, report *Report) error
}

// Uploader transfers a batch's artifacts. Delivery is all or nothing: on
// error none of the files are considered delivered.
type Uploader interface {
	Upload(ctx context.Context, target UploadTarget, files []string) error
}
