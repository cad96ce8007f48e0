// Package blobstore reads blob properties (size, content type, timestamps)
// from the storage account holding uploaded videos. The metadata stage is its
// only consumer; when no account is configured the stage substitutes a
// simulated payload instead of constructing this client.
package blobstore
