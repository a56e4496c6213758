package config

// AssistantConfig identifies the upstream assistant a company's sessions run
// against, plus optional overrides.
type AssistantConfig struct {
	ID                 string
	Name               string
	Description        string
	Model              string
	PredefinedMessages []string
}

// CMSConfig points at the company CMS endpoint that receives conversation
// records after a session completes.
type CMSConfig struct {
	Ready    bool
	Endpoint string
}

// NotificationConfig lists the admin addresses that receive intake
// notification email for a company. Empty means no notifications.
type NotificationConfig struct {
	Emails []string
}

// CompanyConfig bundles the per-company assistant and persistence settings.
type CompanyConfig struct {
	Name         string
	Assistant    AssistantConfig
	CMS          CMSConfig
	Notification NotificationConfig
}

var companies = map[string]CompanyConfig{
	"default": {
		Name: "Default Company",
		Assistant: AssistantConfig{
			ID:   "asst_sqBNPQPw6UUymJGZr4SFslm7",
			Name: "Main Assistant",
			PredefinedMessages: []string{
				"How can I help you today?",
				"What would you like to know about our services?",
				"Do you have any questions about our products?",
			},
		},
		CMS: CMSConfig{
			Ready:    true,
			Endpoint: "https://centromedicolatino.com/wp-json/custom/v1/thread/",
		},
		Notification: NotificationConfig{
			Emails: []string{"admin@centromedicolatino.com"},
		},
	},
	"espanglish": {
		Name: "Espanglish",
		Assistant: AssistantConfig{
			ID:          "asst_sqBNPQPw6UUymJGZr4SFslm7",
			Name:        "Espanglish Assistant",
			Description: "Assistant that helps with Spanish-English translation",
			PredefinedMessages: []string{
				"¿Cómo puedo ayudarte hoy?",
				"¿Qué te gustaría saber sobre nuestros servicios?",
				"Do you need help with translation?",
			},
		},
		CMS: CMSConfig{
			Ready:    false,
			Endpoint: "https://company1.com/wp-json/custom/v1/thread/",
		},
	},
	"laTorreLaw": {
		Name: "La Torre Law",
		Assistant: AssistantConfig{
			ID:          "asst_UyucgVomt8ss7y5BUDvwoFut",
			Name:        "La Torre Law Assistant",
			Description: "Assistant that helps with legal services",
		},
		CMS: CMSConfig{
			Ready:    false,
			Endpoint: "https://latorellaw.com/wp-json/custom/v1/thread/",
		},
	},
}

// CompanyExists reports whether a company key is configured.
func CompanyExists(company string) bool {
	_, ok := companies[company]
	return ok
}

// GetCompany returns the configuration for a company, falling back to the
// default config for unknown or empty keys.
func GetCompany(company string) CompanyConfig {
	if company == "" {
		return companies["default"]
	}
	if cfg, ok := companies[company]; ok {
		return cfg
	}
	return companies["default"]
}
