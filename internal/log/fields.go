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
	FieldRecordID   = "record_id"
	FieldCategory   = "category"
	FieldAmount     = "amount_cents"
	FieldCurrency   = "currency"
	FieldOp         = "op"
)

// Standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentLedger = "ledger"
	ComponentStore  = "store"
	ComponentAMQP   = "amqp"
	ComponentWorker = "worker"
	ComponentSheets = "sheets"
)
