package stages

import (
	"context"
	"math"
	"time"

	"vidflow/internal/activity"
	"vidflow/internal/logging"
	"vidflow/internal/starter"
)

// ExtractMetadata reads blob properties for the uploaded video and builds
// the file metadata consumed by every later stage.
func (a *Activities) ExtractMetadata(ctx context.Context, payload activity.Payload) (activity.Payload, error) {
	var input metadataInput
	if err := decodeInput(StageExtractMetadata, payload, &input); err != nil {
		return nil, err
	}
	video := input.VideoInfo

	if a.blobs == nil {
		a.logger.Info("blob store not configured, simulating metadata extraction",
			logging.String(logging.FieldVideoName, video.BlobName))
		return encodeResult(StageExtractMetadata, a.simulateMetadata(video))
	}

	props, err := a.blobs.GetProperties(ctx, video.ContainerName, video.BlobName)
	if err != nil {
		return nil, err
	}

	metadata := Metadata{
		FileInfo: FileInfo{
			BlobName:      video.BlobName,
			ContainerName: video.ContainerName,
			BlobURL:       video.BlobURL,
			SizeBytes:     props.SizeBytes,
			SizeMB:        megabytes(props.SizeBytes),
			ContentType:   props.ContentType,
			ETag:          props.ETag,
		},
		ExtractedAt: a.timestamp(),
	}
	if !props.CreationTime.IsZero() {
		metadata.FileInfo.CreationTime = props.CreationTime.UTC().Format(time.RFC3339)
	}
	if !props.LastModified.IsZero() {
		metadata.FileInfo.LastModified = props.LastModified.UTC().Format(time.RFC3339)
	}

	a.logger.Info("extracted video metadata",
		logging.String(logging.FieldVideoName, video.BlobName),
		logging.Float64("size_mb", metadata.FileInfo.SizeMB))
	return encodeResult(StageExtractMetadata, metadata)
}

func (a *Activities) simulateMetadata(video starter.VideoInfo) Metadata {
	size := video.ContentLength
	if size <= 0 {
		size = 10 * 1024 * 1024
	}
	contentType := video.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	now := a.timestamp()
	return Metadata{
		FileInfo: FileInfo{
			BlobName:      video.BlobName,
			ContainerName: video.ContainerName,
			BlobURL:       video.BlobURL,
			SizeBytes:     size,
			SizeMB:        megabytes(size),
			ContentType:   contentType,
			CreationTime:  now,
			LastModified:  now,
			ETag:          "simulated-etag",
		},
		VideoProperties: VideoProperties{
			DurationSeconds: 120,
			Resolution:      "1920x1080",
			FrameRate:       30,
			Codec:           "h264",
			BitrateKbps:     2000,
		},
		ExtractedAt: now,
		Simulated:   true,
	}
}

func megabytes(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*100) / 100
}
