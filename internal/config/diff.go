package config

import "reflect"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SanitizerChanged is set when substitutions or the catchphrase settings
	// differ. The sanitiser can be swapped without a restart.
	SanitizerChanged bool

	// RestartRequired names the top-level sections that changed but are only
	// read at startup.
	RestartRequired []string
}

// Changed reports whether anything differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.SanitizerChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new.
func Diff(old, new *Config) ConfigDiff {
	var d ConfigDiff

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.SanitizerChanged = !reflect.DeepEqual(old.Sanitizer, new.Sanitizer)

	if old.Server.MetricsAddr != new.Server.MetricsAddr {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	for _, s := range []struct {
		name     string
		old, new any
	}{
		{"conversation", old.Conversation, new.Conversation},
		{"tts", old.TTS, new.TTS},
		{"stats", old.Stats, new.Stats},
		{"readability", old.Readability, new.Readability},
		{"filler", old.Filler, new.Filler},
		{"prompt", old.Prompt, new.Prompt},
		{"sessions", old.Sessions, new.Sessions},
	} {
		if !reflect.DeepEqual(s.old, s.new) {
			d.RestartRequired = append(d.RestartRequired, s.name)
		}
	}
	return d
}
