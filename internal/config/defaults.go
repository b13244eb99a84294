package config

const (
	defaultWorkDir            = "~/.local/share/redub/projects"
	defaultLogDir             = "~/.local/share/redub/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMaxHeight          = 1080
	defaultDownloadTimeout    = 1800
	defaultExtractSampleRate  = 16000
	defaultVolumeBoost        = 1.5
	defaultDemucsModel        = "htdemucs"
	defaultWhisperModel       = "small"
	defaultTargetLanguage     = "es"
	defaultTranslateProvider  = "auto"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultTranslateTimeout   = 120
	defaultVoice              = "es-MX-JorgeNeural"
	defaultVoiceRate          = "+0%"
	defaultVoiceGain          = 1.0
	defaultMusicGain          = 0.3
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Download: Download{
			MaxHeight:      defaultMaxHeight,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Audio: Audio{
			ExtractSampleRate: defaultExtractSampleRate,
			VolumeBoost:       defaultVolumeBoost,
		},
		Separation: Separation{
			PreferModel: true,
			DemucsModel: defaultDemucsModel,
		},
		Transcription: Transcription{
			Model: defaultWhisperModel,
		},
		Translation: Translation{
			Provider:       defaultTranslateProvider,
			TargetLanguage: defaultTargetLanguage,
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultTranslateTimeout,
		},
		Synthesis: Synthesis{
			Voice: defaultVoice,
			Rate:  defaultVoiceRate,
		},
		Mix: Mix{
			VoiceGain: defaultVoiceGain,
			MusicGain: defaultMusicGain,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
