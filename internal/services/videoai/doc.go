// Package videoai wraps the content-understanding analysis service that
// produces transcripts, topics, labels, and scene segments for a video.
package videoai
