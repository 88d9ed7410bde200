package config

const (
	defaultStorageDir           = "~/.local/share/quaver"
	defaultLogDir               = "~/.local/share/quaver/logs"
	defaultAPIBind              = "127.0.0.1:7512"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultMaxDurationSec       = 600
	defaultMaxFileMB            = 64
	defaultMinSampleRate        = 8000
	defaultMaxSampleRate        = 96000
	defaultSeparationBinary     = "demucs"
	defaultSeparationTimeoutSec = 600
	defaultPitchTimeoutSec      = 300
	defaultMuseScoreBinary      = "mscore"
	defaultVerovioBinary        = "verovio"
	defaultRenderTimeoutSec     = 60
	defaultQueuePollInterval    = 5
	defaultErrorRetryInterval   = 10
	defaultStageTimeout         = 900
	defaultHeartbeatInterval    = 15
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Ingest: Ingest{
			AllowedExtensions: []string{"wav"},
			MaxDurationSec:    defaultMaxDurationSec,
			MaxFileMB:         defaultMaxFileMB,
			MinSampleRate:     defaultMinSampleRate,
			MaxSampleRate:     defaultMaxSampleRate,
		},
		Separation: Separation{
			Binary:     defaultSeparationBinary,
			TimeoutSec: defaultSeparationTimeoutSec,
		},
		Pitch: Pitch{
			TimeoutSec: defaultPitchTimeoutSec,
		},
		Render: Render{
			MuseScoreBinary: defaultMuseScoreBinary,
			VerovioBinary:   defaultVerovioBinary,
			TimeoutSec:      defaultRenderTimeoutSec,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			StageTimeout:       defaultStageTimeout,
			HeartbeatInterval:  defaultHeartbeatInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
