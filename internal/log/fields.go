package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBillID     = "bill_id"
	FieldVendor     = "vendor"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldStatus     = "status"
	FieldDueDate    = "due_date"
	FieldFine       = "fine"
	FieldDaysLate   = "days_late"
	FieldEventType  = "event_type"
	FieldEventID    = "event_id"
	FieldRole       = "role"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentBilling  = "billing"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentReminder = "reminder"
	ComponentShell    = "shell"
	ComponentTrace    = "trace"
	ComponentBackend  = "backend"
	ComponentAuth     = "auth"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpDeposit  = "deposit"
	OpPay      = "pay"
	OpList     = "list"
	OpRemind   = "remind"
	OpNotify   = "notify"
	OpValidate = "validate"
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

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithBill adds the identifying fields of a bill.
// Amounts are passed preformatted so this package stays free of domain types.
func (f LogFields) WithBill(id int64, vendor, amount, category, status string) LogFields {
	f[FieldBillID] = id
	f[FieldVendor] = vendor
	f[FieldAmount] = amount
	f[FieldCategory] = category
	f[FieldStatus] = status
	return f
}

// WithFine adds late fine fields
func (f LogFields) WithFine(fine string, daysLate int) LogFields {
	f[FieldFine] = fine
	f[FieldDaysLate] = daysLate
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
