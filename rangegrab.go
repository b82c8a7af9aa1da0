// Package rangegrab coordinates best-effort, rate-limited retrieval of many
// remote resources addressed by short base-62 codes. It converts between a
// dense integer ID space and short codes, cuts that space into batches, and
// drives each batch through an external fetch tool with adaptive backoff.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, redis/, wget/).
package rangegrab
