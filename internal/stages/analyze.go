package stages

import (
	"context"
	"fmt"

	"vidflow/internal/activity"
	"vidflow/internal/logging"
	"vidflow/internal/services/videoai"
)

// AnalyzeContent sends the video through the content-understanding
// service and returns transcript, topic, label, and scene insights.
func (a *Activities) AnalyzeContent(ctx context.Context, payload activity.Payload) (activity.Payload, error) {
	var input analyzeInput
	if err := decodeInput(StageAnalyzeContent, payload, &input); err != nil {
		return nil, err
	}
	video := input.VideoInfo

	if a.videoAI == nil {
		a.logger.Info("analysis service not configured, simulating content analysis",
			logging.String(logging.FieldVideoName, video.BlobName))
		return encodeResult(StageAnalyzeContent, a.simulateAnalysis(input))
	}

	result, err := a.videoAI.Analyze(ctx, videoai.AnalyzeRequest{
		VideoURL:  video.BlobURL,
		VideoName: video.BlobName,
	})
	if err != nil {
		return nil, err
	}

	analysis := Analysis{
		AnalysisID: fmt.Sprintf("analysis_%s_%d", video.BlobName, a.now().UTC().Unix()),
		VideoName:  result.VideoName,
		Insights:   result.Insights,
		AnalyzedAt: a.timestamp(),
	}
	if analysis.VideoName == "" {
		analysis.VideoName = video.BlobName
	}

	a.logger.Info("analyzed video content",
		logging.String(logging.FieldVideoName, video.BlobName),
		logging.Int("topics", len(analysis.Insights.Topics)),
		logging.Int("scenes", len(analysis.Insights.Scenes)))
	return encodeResult(StageAnalyzeContent, analysis)
}

func (a *Activities) simulateAnalysis(input analyzeInput) Analysis {
	duration := 120.0
	if input.Metadata != nil && input.Metadata.VideoProperties.DurationSeconds > 0 {
		duration = input.Metadata.VideoProperties.DurationSeconds
	}
	return Analysis{
		AnalysisID: fmt.Sprintf("analysis_%d", a.now().UTC().Unix()),
		VideoName:  input.VideoInfo.BlobName,
		Insights: videoai.Insights{
			Transcript: videoai.Transcript{
				Text:       "Welcome to this walkthrough of cloud-native video pipelines and the practices that keep them resilient at scale.",
				Language:   "en-US",
				Confidence: 0.92,
			},
			Topics: []videoai.NamedScore{
				{Name: "Video Processing", Confidence: 0.94},
				{Name: "Cloud Computing", Confidence: 0.91},
				{Name: "Software Development", Confidence: 0.85},
			},
			Labels: []videoai.NamedScore{
				{Name: "cloud", Confidence: 0.95},
				{Name: "pipeline", Confidence: 0.92},
				{Name: "tutorial", Confidence: 0.85},
			},
			Scenes: []videoai.Scene{
				{Start: 0, End: 30, Description: "Introduction and overview"},
				{Start: 30, End: duration - 30, Description: "Technical walkthrough"},
				{Start: duration - 30, End: duration, Description: "Demonstration and wrap-up"},
			},
		},
		AnalyzedAt: a.timestamp(),
		Simulated:  true,
	}
}
