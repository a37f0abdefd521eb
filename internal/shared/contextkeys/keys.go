package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "admin-console context key " + string(c)
}

// RequestIDKey is the key for the inbound BFF request id in context.Context
const RequestIDKey = contextKey("requestID")

// ResourceKey is the key for the remote collection name (user, page) in context.Context
const ResourceKey = contextKey("resource")

// RecordIDKey is the key for the record being edited or deleted
const RecordIDKey = contextKey("recordID")

// ComponentKey names the controller emitting a log line
const ComponentKey = contextKey("component")

// OperationKey names the CRUD operation in flight (create, update, delete, fetch, load)
const OperationKey = contextKey("operation")
