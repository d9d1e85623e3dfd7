// Package operations contains the per-request S3 operation implementations.
// Each operation lives in its own subpackage so it can be tested against a
// narrow interface.
package operations
