package errors

import "net/http"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	Status   int
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Document Errors (R001-R099)
	// ============================================

	"R001": {
		Category: CategoryDocument,
		Message:  "Path not found",
		Detail:   "No property exists at the requested path.",
		Status:   http.StatusNotFound,
	},
	"R002": {
		Category: CategoryDocument,
		Message:  "Invalid path",
		Detail:   "A path segment walks into a value that is not an object or array.",
		Status:   http.StatusBadRequest,
	},
	"R003": {
		Category: CategoryDocument,
		Message:  "Value is not an array",
		Detail:   "Array methods can only be called on arrays.",
		Status:   http.StatusConflict,
	},
	"R004": {
		Category: CategoryDocument,
		Message:  "Unsupported value",
		Detail:   "Only JSON values (objects, arrays, strings, numbers, booleans and null) can be stored.",
		Status:   http.StatusBadRequest,
	},
	"R005": {
		Category: CategoryDocument,
		Message:  "Cyclic value",
		Detail:   "The value refers to itself and cannot be encoded as JSON.",
		Status:   http.StatusInternalServerError,
	},
	"R006": {
		Category: CategoryDocument,
		Message:  "Invalid JSON document",
		Detail:   "The request body or state file is not valid JSON.",
		Status:   http.StatusBadRequest,
	},
	"R007": {
		Category: CategoryDocument,
		Message:  "Write rejected",
		Detail:   "The target refused the write, for example because it is frozen or the array length is invalid.",
		Status:   http.StatusConflict,
	},
	"R008": {
		Category: CategoryDocument,
		Message:  "Array too large",
		Detail:   "The write would grow an array past the inspector's maxArrayLength, or the array is too long to encode.",
		Status:   http.StatusRequestEntityTooLarge,
	},

	// ============================================
	// Configuration Errors (C100-C199)
	// ============================================

	"C100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
	},
	"C101": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .yaml or .yml.",
	},
	"C102": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "logLevel must be one of debug, info, warn or error.",
	},
	"C103": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "logFormat must be text or json.",
	},
	"C104": {
		Category: CategoryConfig,
		Message:  "Invalid inspector address",
		Detail:   "inspector.addr must be a host:port pair.",
	},
	"C105": {
		Category: CategoryConfig,
		Message:  "Invalid metrics namespace",
		Detail:   "metrics.namespace may only contain letters, digits and underscores, and must not start with a digit.",
	},
	"C106": {
		Category: CategoryConfig,
		Message:  "Invalid store configuration",
		Detail:   "store.driver must be file, redis or s3, and the driver needs its location (store.dir, store.redis.addr, or store.s3.bucket and store.s3.region).",
	},

	// ============================================
	// CLI Errors (L200-L299)
	// ============================================

	"L200": {
		Category: CategoryCLI,
		Message:  "State file not found",
		Detail:   "The JSON file passed to serve does not exist.",
	},
	"L201": {
		Category: CategoryCLI,
		Message:  "Inspector failed",
		Detail:   "The inspector HTTP server stopped with an error.",
	},
	"L202": {
		Category: CategoryCLI,
		Message:  "Snapshot store unavailable",
		Detail:   "The configured snapshot store could not be opened or read. Check store.dir, or that the Redis server at store.redis.addr is reachable.",
	},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
