// Package search uploads finished video documents (metadata, transcript,
// topic facets, embedding vectors) into the search index that serves
// downstream retrieval queries.
package search
