package starter

import (
	"encoding/json"
	"strings"

	"vidflow/internal/services"
)

// Event is the blob-created notification that triggers processing. Subject
// carries the path `/blobServices/default/containers/{container}/blobs/{blob}`.
type Event struct {
	URL       string    `json:"url"`
	Subject   string    `json:"subject"`
	EventType string    `json:"eventType"`
	EventTime string    `json:"eventTime"`
	Data      EventData `json:"data"`
}

// EventData holds the blob attributes embedded in the event.
type EventData struct {
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
}

// VideoInfo is the immutable orchestration input extracted from an event.
type VideoInfo struct {
	BlobURL       string `json:"blob_url"`
	BlobName      string `json:"blob_name"`
	ContainerName string `json:"container_name"`
	EventType     string `json:"event_type,omitempty"`
	EventTime     string `json:"event_time,omitempty"`
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
}

// ParseEvent decodes a raw trigger event.
func ParseEvent(raw []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "parse event", "malformed trigger event", err)
	}
	return &event, nil
}

// VideoInfo projects the event into the orchestration input shape.
func (e *Event) VideoInfo() VideoInfo {
	return VideoInfo{
		BlobURL:       e.URL,
		BlobName:      blobNameFromSubject(e.Subject),
		ContainerName: extractContainerName(e.Subject),
		EventType:     e.EventType,
		EventTime:     e.EventTime,
		ContentType:   e.Data.ContentType,
		ContentLength: e.Data.ContentLength,
	}
}

func blobNameFromSubject(subject string) string {
	if subject == "" {
		return ""
	}
	parts := strings.Split(subject, "/")
	return parts[len(parts)-1]
}

func extractContainerName(subject string) string {
	parts := strings.Split(subject, "/")
	for i, part := range parts {
		if part == "containers" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

var videoContentTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/avi":       {},
	"video/mov":       {},
	"video/wmv":       {},
	"video/flv":       {},
	"video/webm":      {},
	"video/quicktime": {},
	"video/x-msvideo": {},
}

var videoExtensions = []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv"}

// IsVideoFile reports whether the blob looks like a video, checking the
// content type first and falling back to the file extension.
func IsVideoFile(contentType, blobName string) bool {
	if contentType != "" {
		if _, ok := videoContentTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	if blobName != "" {
		lower := strings.ToLower(blobName)
		for _, ext := range videoExtensions {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}
	return false
}
