package errors

import "sort"

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Config (R100-R119)
	"R100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
	},
	"R101": {
		Category: CategoryConfig,
		Message:  "Config file could not be parsed",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Unsupported config format",
		Detail:   "Config files must end in .json or .toml.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Invalid debounce interval",
		Detail:   "The debounce interval must be a positive Go duration such as \"300ms\".",
	},
	"R104": {
		Category: CategoryConfig,
		Message:  "Filter key is not a field",
		Detail:   "Every filter key must also appear in defaults.",
	},
	"R105": {
		Category: CategoryConfig,
		Message:  "Invalid server address",
	},

	// Query strings (R120-R139)
	"R120": {
		Category: CategoryQuery,
		Message:  "Malformed query string",
	},
	"R121": {
		Category: CategoryQuery,
		Message:  "Malformed URL",
	},

	// CLI (R140-R159)
	"R140": {
		Category: CategoryCLI,
		Message:  "Expected key=value",
	},

	// Server (R160-R179)
	"R160": {
		Category: CategoryServer,
		Message:  "Invalid request body",
	},
	"R161": {
		Category: CategoryServer,
		Message:  "Server failed",
	},
}

// Codes returns every registered code in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template registered for code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
