package errors

import "sort"

// Template describes a registered error code.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

var registry = map[string]Template{
	// Configuration (C100-C149)
	"C100": {
		Category: CategoryConfig,
		Message:  "Config file unreadable",
		Detail:   "The configuration file exists but could not be read or parsed as YAML.",
	},
	"C101": {
		Category:   CategoryConfig,
		Message:    "Invalid backend URL",
		Detail:     "backend.base_url must be an absolute http or https URL.",
		Suggestion: "Set backend.base_url or CONSOLE_BACKEND_BASE_URL.",
	},
	"C102": {
		Category: CategoryConfig,
		Message:  "Invalid page sizes",
		Detail:   "table.page_sizes must list positive sizes and include table.default_page_size.",
	},
	"C103": {
		Category: CategoryConfig,
		Message:  "Invalid sort cycle",
		Detail:   `table.sort_cycle must be "tristate" or "toggle".`,
	},
	"C104": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Timeouts and delays must not be negative.",
	},
	"C105": {
		Category: CategoryConfig,
		Message:  "Invalid locale",
		Detail:   "i18n.default_locale must be one of i18n.locales.",
	},
	"C106": {
		Category:   CategoryConfig,
		Message:    "Environment override rejected",
		Detail:     "A CONSOLE_* environment variable could not be parsed.",
		Suggestion: "Check the variable's type; durations use Go syntax such as 30s.",
	},
	"C107": {
		Category: CategoryConfig,
		Message:  "Missing required setting",
	},

	// Authorization (C150-C169)
	"C150": {
		Category:   CategoryAuth,
		Message:    "Missing bearer token",
		Suggestion: "Pass --token or set CONSOLE_BACKEND_TOKEN.",
	},
	"C151": {
		Category: CategoryAuth,
		Message:  "Bearer token expired",
	},
	"C152": {
		Category: CategoryAuth,
		Message:  "Role not allowed",
		Detail:   "The token's role claim is not among auth.allowed_roles.",
	},

	// Backend (C200-C219)
	"C200": {
		Category: CategoryBackend,
		Message:  "Backend request failed",
	},

	// Live protocol (C300-C319)
	"C300": {
		Category: CategoryProtocol,
		Message:  "Malformed intent",
		Detail:   "The client sent a frame that is not a valid intent.",
	},
	"C301": {
		Category: CategoryProtocol,
		Message:  "Session limit reached",
	},

	// CLI (C400-C419)
	"C400": {
		Category: CategoryCLI,
		Message:  "Invalid flag",
	},
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template. It is meant for init-time use.
func Register(code string, t Template) {
	registry[code] = t
}
