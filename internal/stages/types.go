package stages

import (
	"vidflow/internal/services/openai"
	"vidflow/internal/services/videoai"
)

// FileInfo describes the stored blob behind a video.
type FileInfo struct {
	BlobName      string  `json:"blob_name"`
	ContainerName string  `json:"container_name"`
	BlobURL       string  `json:"blob_url"`
	SizeBytes     int64   `json:"size_bytes"`
	SizeMB        float64 `json:"size_mb"`
	ContentType   string  `json:"content_type"`
	CreationTime  string  `json:"creation_time,omitempty"`
	LastModified  string  `json:"last_modified,omitempty"`
	ETag          string  `json:"etag,omitempty"`
}

// VideoProperties is filled in by the analysis services; the metadata
// stage only seeds it.
type VideoProperties struct {
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	Codec           string  `json:"codec,omitempty"`
	BitrateKbps     int     `json:"bitrate,omitempty"`
}

// Metadata is the extract-metadata stage result.
type Metadata struct {
	FileInfo        FileInfo        `json:"file_info"`
	VideoProperties VideoProperties `json:"video_properties"`
	ExtractedAt     string          `json:"extracted_at"`
	Simulated       bool            `json:"simulated,omitempty"`
}

// Analysis is the analyze-content stage result.
type Analysis struct {
	AnalysisID string           `json:"analysis_id"`
	VideoName  string           `json:"video_name"`
	Insights   videoai.Insights `json:"insights"`
	AnalyzedAt string           `json:"analyzed_at"`
	Simulated  bool             `json:"simulated,omitempty"`
}

// Embeddings is the generate-embeddings stage result. Keys match the
// text fragments the vectors were produced from.
type Embeddings struct {
	Vectors     map[string]openai.Embedding `json:"embeddings"`
	TextContent map[string]string           `json:"text_content"`
	Model       string                      `json:"embedding_model"`
	GeneratedAt string                      `json:"generated_at"`
	Simulated   bool                        `json:"simulated,omitempty"`
}

// SearchResult is the store-in-search stage result.
type SearchResult struct {
	DocumentID string `json:"document_id"`
	IndexName  string `json:"index_name"`
	Status     string `json:"status"`
	IndexedAt  string `json:"indexed_at"`
	Simulated  bool   `json:"simulated,omitempty"`
}

// InsightsResult is the generate-insights stage result. It echoes the
// search document id so the final summary links back to the index entry.
type InsightsResult struct {
	SearchDocumentID string               `json:"search_document_id"`
	Insights         openai.VideoInsights `json:"insights"`
	GeneratedAt      string               `json:"generated_at"`
	Simulated        bool                 `json:"simulated,omitempty"`
}
