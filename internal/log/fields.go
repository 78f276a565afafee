package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"
	FieldSlot       = "slot"
	FieldRecords    = "records"
	FieldSkipped    = "skipped"
	FieldBytes      = "bytes"
	FieldAmount     = "amount_cents"
	FieldCategory   = "category"
	FieldOccurredAt = "occurred_at"
	FieldPending    = "pending"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentLedger = "ledger"
	ComponentStore  = "store"
	ComponentCache  = "cache"
	ComponentTrace  = "trace"
	ComponentExport = "export"
	ComponentCLI    = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpClear    = "clear"
	OpAppend   = "append"
	OpReset    = "reset"
	OpResync   = "resync"
	OpParse    = "parse"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSlot adds storage slot fields
func (f LogFields) WithSlot(backend, slot string) LogFields {
	f[FieldBackend] = backend
	f[FieldSlot] = slot
	return f
}

// WithRecord adds expense record fields
func (f LogFields) WithRecord(amountCents int64, category string, occurredAt string) LogFields {
	f[FieldAmount] = amountCents
	f[FieldCategory] = category
	f[FieldOccurredAt] = occurredAt
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
