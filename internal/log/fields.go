package log

// Shared field names for structured logging
const (
	FieldComponent  = "component"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
)

// Component names
const (
	ComponentApp    = "app"
	ComponentWorker = "worker"
)
