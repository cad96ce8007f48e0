package stages

import (
	"context"

	"vidflow/internal/activity"
	"vidflow/internal/logging"
	"vidflow/internal/services/openai"
)

// GenerateInsights summarizes the analyzed video with the chat model and
// links the summary back to the stored search document.
func (a *Activities) GenerateInsights(ctx context.Context, payload activity.Payload) (activity.Payload, error) {
	var input insightsInput
	if err := decodeInput(StageGenerateInsights, payload, &input); err != nil {
		return nil, err
	}

	if a.openAI == nil {
		a.logger.Info("chat service not configured, simulating insights",
			logging.String(logging.FieldVideoName, input.VideoInfo.BlobName))
		return encodeResult(StageGenerateInsights, a.simulateInsights(input))
	}

	insightCtx := buildInsightContext(input)
	insights, err := a.openAI.GenerateVideoInsights(ctx, insightCtx)
	if err != nil {
		return nil, err
	}

	result := InsightsResult{
		SearchDocumentID: input.SearchDocumentID,
		Insights:         *insights,
		GeneratedAt:      a.timestamp(),
	}
	a.logger.Info("generated video insights",
		logging.String(logging.FieldVideoName, input.VideoInfo.BlobName),
		logging.String("document_id", input.SearchDocumentID))
	return encodeResult(StageGenerateInsights, result)
}

const (
	insightTopicLimit = 10
	insightLabelLimit = 15
)

func buildInsightContext(input insightsInput) openai.InsightContext {
	insightCtx := openai.InsightContext{
		VideoName: input.VideoInfo.BlobName,
	}
	if input.Metadata != nil {
		insightCtx.DurationMinutes = roundTenth(input.Metadata.VideoProperties.DurationSeconds / 60)
		insightCtx.FileSizeMB = input.Metadata.FileInfo.SizeMB
	}
	if input.Analysis != nil {
		insights := input.Analysis.Insights
		insightCtx.Transcript = insights.Transcript.Text
		for i, topic := range insights.Topics {
			if i == insightTopicLimit {
				break
			}
			insightCtx.Topics = append(insightCtx.Topics, topic.Name)
		}
		for i, label := range insights.Labels {
			if i == insightLabelLimit {
				break
			}
			insightCtx.Labels = append(insightCtx.Labels, label.Name)
		}
	}
	return insightCtx
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func (a *Activities) simulateInsights(input insightsInput) InsightsResult {
	takeaways := []string{
		"Staged processing keeps long-running video work resumable",
		"Vector embeddings make transcript content searchable",
		"Analysis results feed both search indexing and summarization",
	}
	return InsightsResult{
		SearchDocumentID: input.SearchDocumentID,
		Insights: openai.VideoInsights{
			Summary:        "Automated walkthrough of the uploaded video covering its main topics and structure.",
			KeyTakeaways:   takeaways,
			ContentType:    "Educational/Tutorial",
			TargetAudience: "Engineers working with media pipelines",
		},
		GeneratedAt: a.timestamp(),
		Simulated:   true,
	}
}
