package config

// Wardfile represents the structure of the ward.yaml configuration file.
type Wardfile struct {
	Version    string       `yaml:"version"`
	Vault      string       `yaml:"vault"`
	Interval   string       `yaml:"interval"`
	StaleAfter string       `yaml:"staleAfter"`
	Agent      AgentDTO     `yaml:"agent"`
	Watchers   []WatcherDTO `yaml:"watchers"`
	Dashboard  DashboardDTO `yaml:"dashboard"`
}

// AgentDTO configures the external reasoning agent invocation.
type AgentDTO struct {
	Command []string `yaml:"command"`
	Timeout string   `yaml:"timeout"`
	Retries int      `yaml:"retries"`
	Backoff string   `yaml:"backoff"`
	Policy  []string `yaml:"policy"`
}

// WatcherDTO configures one drop-folder watcher.
type WatcherDTO struct {
	Name            string `yaml:"name"`
	DropFolder      string `yaml:"dropFolder"`
	DuplicatePolicy string `yaml:"duplicatePolicy"`
}

// DashboardDTO configures the derived summary document.
type DashboardDTO struct {
	Tail int `yaml:"tail"`
}
