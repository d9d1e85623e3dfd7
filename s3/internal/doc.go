// Package internal contains private implementation details for the s3 client.
//
// The internal packages are organized as follows:
//   - operations: upload, download and list against the S3 API
//   - s3api: the subset of the SDK client the operations depend on
//   - validation: bucket name and object key checks
//   - testutil: mocks, fixtures and the LocalStack container
package internal
