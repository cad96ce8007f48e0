package stages

import (
	"encoding/json"
	"fmt"

	"vidflow/internal/activity"
	"vidflow/internal/starter"
)

// Stage names are wire-stable: they appear in step records and API output.
const (
	StageExtractMetadata    = "extract-metadata"
	StageAnalyzeContent     = "analyze-content"
	StageGenerateEmbeddings = "generate-embeddings"
	StageStoreInSearch      = "store-in-search"
	StageGenerateInsights   = "generate-insights"
)

// Names returns the stage names in execution order.
func Names() []string {
	return []string{
		StageExtractMetadata,
		StageAnalyzeContent,
		StageGenerateEmbeddings,
		StageStoreInSearch,
		StageGenerateInsights,
	}
}

// Context accumulates stage results as the pipeline advances. Values are
// set once by Apply and never mutated afterwards, so a replayed run
// rebuilds an identical Context from recorded step results.
type Context struct {
	Video      starter.VideoInfo
	Metadata   *Metadata
	Analysis   *Analysis
	Embeddings *Embeddings
	Search     *SearchResult
	Insights   *InsightsResult
}

// NewContext seeds a pipeline context from the orchestration input.
func NewContext(video starter.VideoInfo) Context {
	return Context{Video: video}
}

// Definition binds a stage name to its payload construction and result
// application. The engine walks these in order.
type Definition struct {
	Name  string
	Input func(Context) (activity.Payload, error)
	Apply func(Context, activity.Payload) (Context, error)
}

// Pipeline returns the fixed stage sequence.
func Pipeline() []Definition {
	return []Definition{
		{
			Name: StageExtractMetadata,
			Input: func(c Context) (activity.Payload, error) {
				return marshalInput(metadataInput{VideoInfo: c.Video})
			},
			Apply: func(c Context, result activity.Payload) (Context, error) {
				var metadata Metadata
				if err := decodeResult(StageExtractMetadata, result, &metadata); err != nil {
					return c, err
				}
				c.Metadata = &metadata
				return c, nil
			},
		},
		{
			Name: StageAnalyzeContent,
			Input: func(c Context) (activity.Payload, error) {
				return marshalInput(analyzeInput{VideoInfo: c.Video, Metadata: c.Metadata})
			},
			Apply: func(c Context, result activity.Payload) (Context, error) {
				var analysis Analysis
				if err := decodeResult(StageAnalyzeContent, result, &analysis); err != nil {
					return c, err
				}
				c.Analysis = &analysis
				return c, nil
			},
		},
		{
			Name: StageGenerateEmbeddings,
			Input: func(c Context) (activity.Payload, error) {
				return marshalInput(embeddingsInput{VideoInfo: c.Video, Analysis: c.Analysis, Metadata: c.Metadata})
			},
			Apply: func(c Context, result activity.Payload) (Context, error) {
				var embeddings Embeddings
				if err := decodeResult(StageGenerateEmbeddings, result, &embeddings); err != nil {
					return c, err
				}
				c.Embeddings = &embeddings
				return c, nil
			},
		},
		{
			Name: StageStoreInSearch,
			Input: func(c Context) (activity.Payload, error) {
				return marshalInput(searchInput{
					VideoInfo:  c.Video,
					Metadata:   c.Metadata,
					Analysis:   c.Analysis,
					Embeddings: c.Embeddings,
				})
			},
			Apply: func(c Context, result activity.Payload) (Context, error) {
				var search SearchResult
				if err := decodeResult(StageStoreInSearch, result, &search); err != nil {
					return c, err
				}
				c.Search = &search
				return c, nil
			},
		},
		{
			Name: StageGenerateInsights,
			Input: func(c Context) (activity.Payload, error) {
				input := insightsInput{VideoInfo: c.Video, Metadata: c.Metadata, Analysis: c.Analysis}
				if c.Search != nil {
					input.SearchDocumentID = c.Search.DocumentID
				}
				return marshalInput(input)
			},
			Apply: func(c Context, result activity.Payload) (Context, error) {
				var insights InsightsResult
				if err := decodeResult(StageGenerateInsights, result, &insights); err != nil {
					return c, err
				}
				c.Insights = &insights
				return c, nil
			},
		},
	}
}

type metadataInput struct {
	VideoInfo starter.VideoInfo `json:"video_info"`
}

type analyzeInput struct {
	VideoInfo starter.VideoInfo `json:"video_info"`
	Metadata  *Metadata         `json:"metadata"`
}

type embeddingsInput struct {
	VideoInfo starter.VideoInfo `json:"video_info"`
	Analysis  *Analysis         `json:"analysis"`
	Metadata  *Metadata         `json:"metadata"`
}

type searchInput struct {
	VideoInfo  starter.VideoInfo `json:"video_info"`
	Metadata   *Metadata         `json:"metadata"`
	Analysis   *Analysis         `json:"analysis"`
	Embeddings *Embeddings       `json:"embeddings"`
}

type insightsInput struct {
	VideoInfo        starter.VideoInfo `json:"video_info"`
	Metadata         *Metadata         `json:"metadata"`
	Analysis         *Analysis         `json:"analysis"`
	SearchDocumentID string            `json:"search_document_id"`
}

func marshalInput(input any) (activity.Payload, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode stage input: %w", err)
	}
	return data, nil
}

func decodeResult(stage string, result activity.Payload, into any) error {
	if len(result) == 0 {
		return fmt.Errorf("%s: empty stage result", stage)
	}
	if err := json.Unmarshal(result, into); err != nil {
		return fmt.Errorf("%s: decode stage result: %w", stage, err)
	}
	return nil
}
