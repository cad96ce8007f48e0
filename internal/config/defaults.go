package config

const (
	defaultDataDir             = "~/.local/share/vidflow/data"
	defaultLogDir              = "~/.local/share/vidflow/logs"
	defaultAPIBind             = "127.0.0.1:7312"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultQueuePollInterval   = 2
	defaultErrorRetryInterval  = 5
	defaultStageTimeout        = 600
	defaultRetryAttempts       = 0
	defaultRetryBackoff        = 5
	defaultMaxConcurrent       = 4
	defaultBlobRequestTimeout  = 30
	defaultVideoAIAPIVersion   = "2024-12-01-preview"
	defaultOpenAIAPIVersion    = "2024-06-01"
	defaultEmbeddingDeployment = "text-embedding-3-small"
	defaultChatDeployment      = "gpt-4o"
	defaultSearchAPIVersion    = "2024-07-01"
	defaultSearchIndexName     = "video-insights"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Workflow: Workflow{
			QueuePollInterval:      defaultQueuePollInterval,
			ErrorRetryInterval:     defaultErrorRetryInterval,
			StageTimeout:           defaultStageTimeout,
			RetryAttempts:          defaultRetryAttempts,
			RetryBackoff:           defaultRetryBackoff,
			MaxConcurrentInstances: defaultMaxConcurrent,
		},
		BlobStore: BlobStore{
			RequestTimeout: defaultBlobRequestTimeout,
		},
		VideoAI: VideoAI{
			APIVersion: defaultVideoAIAPIVersion,
		},
		OpenAI: OpenAI{
			APIVersion:          defaultOpenAIAPIVersion,
			EmbeddingDeployment: defaultEmbeddingDeployment,
			ChatDeployment:      defaultChatDeployment,
		},
		Search: Search{
			APIVersion: defaultSearchAPIVersion,
			IndexName:  defaultSearchIndexName,
		},
	}
}
