package config

const (
	defaultStagingDir         = "~/.local/share/podforge/staging"
	defaultOutputDir          = "~/.local/share/podforge/output"
	defaultLogDir             = "~/.local/share/podforge/logs"
	defaultAPIBind            = "127.0.0.1:8460"
	defaultAppBaseURL         = "http://localhost:8460"
	defaultScriptAPIBaseURL   = "https://api.matchive.io.vn"
	defaultImageGenBaseURL    = "https://openai.matchive.io.vn/v1/chat/completions"
	defaultImageModel         = "gemini-3-pro-image-preview"
	defaultImageTimeout       = 120
	defaultRequestTimeout     = 30
	defaultDownloadTimeout    = 120
	defaultDownloadRetries    = 3
	defaultRetryBaseSeconds   = 2
	defaultFPS                = 24
	defaultCodec              = "libx264"
	defaultAudioCodec         = "aac"
	defaultAudioBitrate       = "192k"
	defaultSubtitleFont       = "Arial"
	defaultSubtitleOutline    = 2
	defaultFontSizeHorizontal = 20
	defaultFontSizeVertical   = 10
	defaultDownloadWorkers    = 3
	defaultRenderWorkers      = 4
	defaultBatchSize          = 50
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
			AppBaseURL: defaultAppBaseURL,
		},
		ScriptAPI: ScriptAPI{
			BaseURL:          defaultScriptAPIBaseURL,
			RequestTimeout:   defaultRequestTimeout,
			DownloadTimeout:  defaultDownloadTimeout,
			DownloadRetries:  defaultDownloadRetries,
			RetryBaseSeconds: defaultRetryBaseSeconds,
		},
		ImageGen: ImageGen{
			BaseURL:        defaultImageGenBaseURL,
			Model:          defaultImageModel,
			TimeoutSeconds: defaultImageTimeout,
		},
		Video: Video{
			FPS:                defaultFPS,
			Codec:              defaultCodec,
			AudioCodec:         defaultAudioCodec,
			AudioBitrate:       defaultAudioBitrate,
			SubtitleFont:       defaultSubtitleFont,
			SubtitleOutline:    defaultSubtitleOutline,
			FontSizeHorizontal: defaultFontSizeHorizontal,
			FontSizeVertical:   defaultFontSizeVertical,
		},
		Pipeline: Pipeline{
			DownloadWorkers: defaultDownloadWorkers,
			RenderWorkers:   defaultRenderWorkers,
			BatchSize:       defaultBatchSize,
			SubtitleBurn:    SubtitleBurnSegment,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
