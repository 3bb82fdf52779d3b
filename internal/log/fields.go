package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldEmail       = "email"
	FieldTripID      = "trip_id"
	FieldExpenseID   = "expense_id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldEventType   = "event_type"
	FieldPeriod      = "period"
	FieldSheetsRef   = "sheets_ref"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentTracker   = "tracker"
	ComponentStorage   = "storage"
	ComponentReport    = "report"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

// Fields is a small builder for slog key/value pairs.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithEmail(email string) Fields {
	f[FieldEmail] = email
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithExpense records the identifying fields of an expense.
func (f Fields) WithExpense(id, category string, amountCents int64) Fields {
	f[FieldExpenseID] = id
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

func (f Fields) WithTrip(id string) Fields {
	f[FieldTripID] = id
	return f
}

// Args converts the fields to slog's alternating key/value form.
func (f Fields) Args() []any {
	args := make([]any, 0, len(f)*2)
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}
