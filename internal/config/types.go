package config

import "time"

// Config represents the complete hookctl configuration.
type Config struct {
	API     APIConfig     `yaml:"api" json:"api"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Trigger TriggerConfig `yaml:"trigger" json:"trigger"`
	Sink    SinkConfig    `yaml:"sink" json:"sink"`

	// SourcePath is the file the configuration was read from, empty when
	// only defaults apply.
	SourcePath string `yaml:"-" json:"source_path,omitempty"`
}

// APIConfig addresses the webhook delivery service.
type APIConfig struct {
	URL     string        `yaml:"url" json:"url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// TriggerConfig holds trigger form defaults.
type TriggerConfig struct {
	// EventTypes are offered as suggestions; any non-empty type may be sent.
	EventTypes []string `yaml:"event_types" json:"event_types"`
}

// SinkConfig configures the local verifying ingestion endpoint.
type SinkConfig struct {
	Listen        string             `yaml:"listen" json:"listen"`
	Path          string             `yaml:"path" json:"path"`
	MaxBodySize   string             `yaml:"max_body_size" json:"max_body_size"`
	Subscriptions []SinkSubscription `yaml:"subscriptions" json:"subscriptions"`

	// MaxBodyBytes is MaxBodySize resolved by Load.
	MaxBodyBytes int64 `yaml:"-" json:"max_body_bytes"`
}

// SinkSubscription is a subscription the sink accepts deliveries for.
type SinkSubscription struct {
	ID     int64  `yaml:"id" json:"id"`
	Secret string `yaml:"secret" json:"secret"`

	// EventTypes filters accepted events; empty accepts all.
	EventTypes []string `yaml:"event_types" json:"event_types"`
}

// Subscription returns the sink subscription with the given id.
func (s SinkConfig) Subscription(id int64) (SinkSubscription, bool) {
	for _, sub := range s.Subscriptions {
		if sub.ID == id {
			return sub, true
		}
	}
	return SinkSubscription{}, false
}

// ChecksumManifest is the .checksums file written by Lock.
type ChecksumManifest struct {
	Version     int               `yaml:"version" json:"version"`
	GeneratedAt string            `yaml:"generated_at" json:"generated_at"`
	Hashes      map[string]string `yaml:"hashes" json:"hashes"`
}
