// Package list handles S3 object listing operations.
// It provides single page listing, continuation-token pagination and
// channel-based streaming of a whole prefix, all with URL-decoded keys.
package list
