package config

// CLIConfig is the configuration for authtoken-cli.
type CLIConfig struct {
	Server string `yaml:"server"`
	Output string `yaml:"output"` // table, json, yaml

	// Token is the auth token saved by login and removed by logout.
	Token string `yaml:"token,omitempty"`

	// Username is the account Token belongs to, for display only.
	Username string `yaml:"username,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: "http://127.0.0.1:5080",
		Output: "table",
	}
}
