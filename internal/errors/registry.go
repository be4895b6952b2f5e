package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (T100-T119)
	// ============================================

	"T100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No toastkit configuration file exists at the given path.",
	},
	"T101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file could not be parsed.",
	},
	"T102": {
		Category: CategoryConfig,
		Message:  "Unsupported config format",
		Detail:   "Configuration files must end in .json, .toml, .yaml or .yml.",
	},
	"T103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range.",
	},

	// ============================================
	// Scenario Errors (T200-T219)
	// ============================================

	"T200": {
		Category: CategoryScenario,
		Message:  "Invalid scenario file",
		Detail:   "The scenario file is not valid YAML.",
	},
	"T201": {
		Category: CategoryScenario,
		Message:  "Invalid step",
		Detail:   "Every step needs exactly one action.",
	},
	"T202": {
		Category: CategoryScenario,
		Message:  "Invalid duration",
		Detail:   "Durations use Go syntax such as 250ms, 5s or 1m30s.",
	},
	"T203": {
		Category: CategoryScenario,
		Message:  "Missing toast id",
		Detail:   "This action refers to a toast and needs an id.",
	},
	"T204": {
		Category: CategoryScenario,
		Message:  "Empty scenario",
		Detail:   "The scenario has no steps.",
	},

	// ============================================
	// CLI Errors (T300-T319)
	// ============================================

	"T300": {
		Category: CategoryCLI,
		Message:  "Scenario run failed",
		Detail:   "The scenario stopped before it completed.",
	},
	"T301": {
		Category: CategoryCLI,
		Message:  "Metrics server failed",
		Detail:   "The metrics HTTP server could not be started.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
