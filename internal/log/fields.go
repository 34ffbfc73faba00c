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

	FieldOwnerID     = "owner_id"
	FieldInvoiceID   = "invoice_id"
	FieldVendor      = "vendor"
	FieldAmountCents = "amount_cents"
	FieldDueDate     = "due_date"
	FieldInterval    = "interval"
	FieldCategory    = "category"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentSweep      = "sweep"
	ComponentNotify     = "notify"
	ComponentAnalysis   = "analysis"
	ComponentExtraction = "extraction"
	ComponentCache      = "cache"
	ComponentAuth       = "auth"
)
