// Package s3 implements blobstore.BlobStore for Amazon S3.
//
// Store reads snapshots with ranged GETs and writes them with streaming
// multipart uploads. DDBCommitStore layers DynamoDB conditional writes on
// top so multiple index builders can atomically publish the CURRENT
// snapshot pointer.
package s3
