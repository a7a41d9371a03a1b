package eventmodels

// TrackerConfigYAML is the deserialized form of config.yaml.
type TrackerConfigYAML struct {
	Roster       []string `yaml:"roster"`
	SummaryTimes []string `yaml:"summaryTimes"`
	Port         int      `yaml:"port"`
	AuditLogPath string   `yaml:"auditLogPath"`
}
