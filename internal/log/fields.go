package log

import "context"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldOwnerID    = "owner_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
)

// Components defines standard component names
const (
	ComponentAPI          = "api"
	ComponentWorker       = "worker"
	ComponentPeriodWorker = "period-worker"
	ComponentTokenIssuer  = "issue-token"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	ownerIDKey
)

// WithRequestID stores the request id for later log records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOwnerID stores the authenticated owner for later log records.
func WithOwnerID(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerIDKey, owner)
}

func OwnerID(ctx context.Context) string {
	owner, _ := ctx.Value(ownerIDKey).(string)
	return owner
}
