package stages

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"vidflow/internal/activity"
	"vidflow/internal/logging"
	"vidflow/internal/services/blobstore"
	"vidflow/internal/services/openai"
	"vidflow/internal/services/search"
	"vidflow/internal/services/videoai"
)

// Activities holds the injected service clients shared by the five stage
// implementations. A nil client switches the stage to its simulated
// fallback, mirroring unconfigured development environments.
type Activities struct {
	blobs   *blobstore.Client
	videoAI *videoai.Client
	openAI  *openai.Client
	search  *search.Client
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an Activities set.
type Option func(*Activities)

// WithClock overrides the wall clock, used by tests for stable payloads.
func WithClock(now func() time.Time) Option {
	return func(a *Activities) {
		a.now = now
	}
}

func NewActivities(blobs *blobstore.Client, videoAI *videoai.Client, openAI *openai.Client, searchClient *search.Client, logger *slog.Logger, opts ...Option) *Activities {
	if logger == nil {
		logger = logging.NewNop()
	}
	activities := &Activities{
		blobs:   blobs,
		videoAI: videoAI,
		openAI:  openAI,
		search:  searchClient,
		logger:  logging.NewComponentLogger(logger, "stages"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(activities)
	}
	return activities
}

// Register binds every stage activity into the registry.
func (a *Activities) Register(registry *activity.Registry) {
	registry.Register(StageExtractMetadata, a.ExtractMetadata)
	registry.Register(StageAnalyzeContent, a.AnalyzeContent)
	registry.Register(StageGenerateEmbeddings, a.GenerateEmbeddings)
	registry.Register(StageStoreInSearch, a.StoreInSearch)
	registry.Register(StageGenerateInsights, a.GenerateInsights)
}

func (a *Activities) timestamp() string {
	return a.now().UTC().Format(time.RFC3339)
}

func decodeInput(stage string, payload activity.Payload, into any) error {
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("%s: decode stage input: %w", stage, err)
	}
	return nil
}

func encodeResult(stage string, result any) (activity.Payload, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%s: encode stage result: %w", stage, err)
	}
	return data, nil
}
