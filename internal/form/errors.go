package form

// Stage names the workflow step that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StagePredict  Stage = "predict"
)

// Error is a terminal submission failure. Msg is the single string shown
// to the user.
type Error struct {
	Stage Stage
	Msg   string
	Err   error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }
