// Package s3 is the aws-sdk-go-v2 backend of bota.
//
// It lists buckets and objects, uploads and downloads single files with
// progress reporting, and creates and removes buckets and objects on any
// S3-compatible endpoint. Failures are returned as *errors.Error values
// whose chain carries a sentinel such as errors.ErrObjectNotFound, so callers
// can branch on them with errors.Is.
//
// Example usage:
//
//	client, err := s3.New(ctx,
//	    s3.WithEndpoint("https://s3.example.org"),
//	    s3.WithForcePathStyle(true),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.UploadFile(ctx, "my-bucket", "path/file.txt", "/local/file.txt")
//	if err != nil {
//	    return err
//	}
package s3
