package stages

import (
	"context"
	"strings"

	"vidflow/internal/activity"
	"vidflow/internal/logging"
	"vidflow/internal/services/openai"
)

const simulatedEmbeddingDimension = 1536

// GenerateEmbeddings turns the analysis text into vector embeddings for
// semantic search.
func (a *Activities) GenerateEmbeddings(ctx context.Context, payload activity.Payload) (activity.Payload, error) {
	var input embeddingsInput
	if err := decodeInput(StageGenerateEmbeddings, payload, &input); err != nil {
		return nil, err
	}

	texts := embeddingTexts(input.Analysis)

	if a.openAI == nil {
		a.logger.Info("embedding service not configured, simulating embeddings",
			logging.String(logging.FieldVideoName, input.VideoInfo.BlobName))
		return encodeResult(StageGenerateEmbeddings, a.simulateEmbeddings(texts))
	}

	vectors, err := a.openAI.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}

	result := Embeddings{
		Vectors:     vectors,
		TextContent: texts,
		Model:       "text-embedding-ada-002",
		GeneratedAt: a.timestamp(),
	}
	a.logger.Info("generated embeddings",
		logging.String(logging.FieldVideoName, input.VideoInfo.BlobName),
		logging.Int("vectors", len(vectors)))
	return encodeResult(StageGenerateEmbeddings, result)
}

// embeddingTexts flattens the analysis into the named fragments that get
// their own vectors, plus a combined fragment for whole-video search.
func embeddingTexts(analysis *Analysis) map[string]string {
	texts := map[string]string{
		"full_transcript": "",
		"topics":          "",
		"labels":          "",
		"scenes":          "",
	}
	if analysis != nil {
		insights := analysis.Insights
		texts["full_transcript"] = insights.Transcript.Text

		topics := make([]string, 0, len(insights.Topics))
		for _, topic := range insights.Topics {
			topics = append(topics, topic.Name)
		}
		texts["topics"] = strings.Join(topics, " ")

		labels := make([]string, 0, len(insights.Labels))
		for _, label := range insights.Labels {
			labels = append(labels, label.Name)
		}
		texts["labels"] = strings.Join(labels, " ")

		scenes := make([]string, 0, len(insights.Scenes))
		for _, scene := range insights.Scenes {
			scenes = append(scenes, scene.Description)
		}
		texts["scenes"] = strings.Join(scenes, " ")
	}

	combined := strings.TrimSpace(strings.Join([]string{
		texts["full_transcript"], texts["topics"], texts["labels"], texts["scenes"],
	}, " "))
	texts["combined_content"] = combined
	return texts
}

func (a *Activities) simulateEmbeddings(texts map[string]string) Embeddings {
	vectors := make(map[string]openai.Embedding, len(texts))
	for name, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		vectors[name] = openai.Embedding{
			Vector:    deterministicVector(text, simulatedEmbeddingDimension),
			Dimension: simulatedEmbeddingDimension,
		}
	}
	return Embeddings{
		Vectors:     vectors,
		TextContent: texts,
		Model:       "text-embedding-ada-002",
		GeneratedAt: a.timestamp(),
		Simulated:   true,
	}
}

// deterministicVector derives a stable pseudo-vector from the text so
// replayed simulations produce identical payloads.
func deterministicVector(text string, dimension int) []float64 {
	vector := make([]float64, dimension)
	seed := uint64(1469598103934665603)
	for _, b := range []byte(text) {
		seed ^= uint64(b)
		seed *= 1099511628211
	}
	for i := range vector {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		vector[i] = float64(int64(seed%2000)-1000) / 1000
	}
	return vector
}
