package stages

import (
	"context"
	"fmt"
	"strings"

	"vidflow/internal/activity"
	"vidflow/internal/logging"
)

// StoreInSearch builds the search document for the video and uploads it
// to the index. The document id follows the `video_{name}_{unix}` form.
func (a *Activities) StoreInSearch(ctx context.Context, payload activity.Payload) (activity.Payload, error) {
	var input searchInput
	if err := decodeInput(StageStoreInSearch, payload, &input); err != nil {
		return nil, err
	}

	documentID := a.documentID(input.VideoInfo.BlobName)

	if a.search == nil {
		a.logger.Info("search service not configured, simulating document upload",
			logging.String(logging.FieldVideoName, input.VideoInfo.BlobName),
			logging.String("document_id", documentID))
		return encodeResult(StageStoreInSearch, SearchResult{
			DocumentID: documentID,
			IndexName:  "videos",
			Status:     "succeeded",
			IndexedAt:  a.timestamp(),
			Simulated:  true,
		})
	}

	document := buildSearchDocument(documentID, input, a.timestamp())
	upload, err := a.search.UploadDocument(ctx, document)
	if err != nil {
		return nil, err
	}

	status := "succeeded"
	if !upload.Succeeded {
		status = "failed"
	}
	result := SearchResult{
		DocumentID: documentID,
		IndexName:  a.search.IndexName(),
		Status:     status,
		IndexedAt:  a.timestamp(),
	}
	a.logger.Info("stored search document",
		logging.String(logging.FieldVideoName, input.VideoInfo.BlobName),
		logging.String("document_id", documentID),
		logging.String("upload_status", status))
	return encodeResult(StageStoreInSearch, result)
}

func (a *Activities) documentID(blobName string) string {
	sanitized := strings.NewReplacer(".", "_", " ", "_").Replace(blobName)
	return fmt.Sprintf("video_%s_%d", sanitized, a.now().UTC().Unix())
}

func buildSearchDocument(documentID string, input searchInput, processedAt string) map[string]any {
	document := map[string]any{
		"id":             documentID,
		"video_name":     input.VideoInfo.BlobName,
		"container_name": input.VideoInfo.ContainerName,
		"blob_url":       input.VideoInfo.BlobURL,
		"processed_at":   processedAt,
	}

	if input.Metadata != nil {
		document["file_size_mb"] = input.Metadata.FileInfo.SizeMB
		document["content_type"] = input.Metadata.FileInfo.ContentType
		document["upload_time"] = input.Metadata.FileInfo.CreationTime
		document["last_modified"] = input.Metadata.FileInfo.LastModified
		document["duration_seconds"] = input.Metadata.VideoProperties.DurationSeconds
		document["resolution"] = input.Metadata.VideoProperties.Resolution
	}

	var transcriptText string
	if input.Analysis != nil {
		insights := input.Analysis.Insights
		transcriptText = insights.Transcript.Text
		document["analysis_id"] = input.Analysis.AnalysisID
		document["transcript"] = transcriptText
		document["language"] = insights.Transcript.Language
		document["transcript_confidence"] = insights.Transcript.Confidence

		topics := make([]string, 0, len(insights.Topics))
		for _, topic := range insights.Topics {
			topics = append(topics, topic.Name)
		}
		document["topics"] = topics

		labels := make([]string, 0, len(insights.Labels))
		for _, label := range insights.Labels {
			labels = append(labels, label.Name)
		}
		document["labels"] = labels

		scenes := make([]map[string]any, 0, len(insights.Scenes))
		for _, scene := range insights.Scenes {
			scenes = append(scenes, map[string]any{
				"description": scene.Description,
				"start_time":  scene.Start,
				"end_time":    scene.End,
			})
		}
		document["scenes"] = scenes

		document["searchable_content"] = strings.TrimSpace(
			transcriptText + " " + strings.Join(topics, " ") + " " + strings.Join(labels, " "))
	}

	if input.Embeddings != nil {
		if combined, ok := input.Embeddings.Vectors["combined_content"]; ok {
			document["transcript_vector"] = combined.Vector
		}
		if topics, ok := input.Embeddings.Vectors["topics"]; ok {
			document["topics_vector"] = topics.Vector
		}
		if scenes, ok := input.Embeddings.Vectors["scenes"]; ok {
			document["scenes_vector"] = scenes.Vector
		}
	}

	return document
}
