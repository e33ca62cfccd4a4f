package engine

// Status is the machine-readable outcome of an operation. Zero means the
// operation (or its verification) succeeded.
type Status int

const (
	StatusOK Status = iota
	ErrCommandFailed
	ErrSourceMissing
	ErrAlreadyExists
	ErrNameConflict
	ErrNameTooLong
	ErrInsufficientSpace
	ErrNotSnapshot
	ErrSnapshotMissing
	ErrInUse
	ErrVerifyFailed
	ErrInvalidParams
	ErrMountFailed
	ErrUmountFailed
	ErrInvalidAction
)

// Result is the contract every operation reports: a status code, a message
// for failures, and whether host state was (or would be) mutated. Failed
// prechecks always report Changed == false.
type Result struct {
	Code    Status `json:"return_code"`
	Message string `json:"errors"`
	Changed bool   `json:"changed"`
	Data    any    `json:"data,omitempty"`
}

func ok(changed bool) Result {
	return Result{Code: StatusOK, Changed: changed}
}

func fail(code Status, message string) Result {
	return Result{Code: code, Message: message}
}

func failChanged(code Status, message string, changed bool) Result {
	return Result{Code: code, Message: message, Changed: changed}
}
