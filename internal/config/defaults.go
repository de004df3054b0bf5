package config

const (
	defaultConfigLocation   = "~/.config/highlighter/config.toml"
	defaultDataDir          = "~/.local/share/highlighter"
	defaultLogDir           = "~/.local/share/highlighter/logs"
	defaultAPIBind          = "127.0.0.1:7488"
	defaultClassifierPython = "python"
	defaultClassifierScript = "./scripts/yamnet_classifier.py"
	defaultPresetName       = "default"
	defaultCleanupSchedule  = "@daily"
)

var defaultAllowedMIMETypes = []string{
	"video/mp4",
	"video/avi",
	"video/x-msvideo",
	"video/mpeg",
	"video/webm",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Classifier: Classifier{
			Script:         defaultClassifierScript,
			TimeoutSeconds: 3600,
		},
		Media: Media{
			FFmpegBinary:           "ffmpeg",
			FFprobeBinary:          "ffprobe",
			YtDlpBinary:            "yt-dlp",
			AudioCodec:             "pcm_s16le",
			AudioSampleRate:        16000,
			AudioChannels:          1,
			ThumbnailWidth:         320,
			ThumbnailHeight:        240,
			ThumbnailPosition:      0.2,
			ToolTimeoutSeconds:     600,
			DownloadTimeoutSeconds: 7200,
		},
		Highlights: Highlights{
			Preset:           defaultPresetName,
			IncludePeaks:     true,
			PadBeforeSeconds: 4,
			PadAfterSeconds:  2,
		},
		Library: Library{
			RetentionDays:    0,
			CleanupSchedule:  defaultCleanupSchedule,
			MaxUploadMB:      4096,
			AllowedMIMETypes: append([]string(nil), defaultAllowedMIMETypes...),
			MinFreeSpaceMB:   1024,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   120,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			NotifyFailures: true,
		},
		Logging: Logging{
			Format:        "console",
			Level:         "info",
			RetentionDays: 30,
		},
	}
}
