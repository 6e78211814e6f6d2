package contact

// Status is the outcome of the most recent submission attempt. It is one of
// Idle, Success or Failure; switch on the concrete type to handle it.
type Status interface {
	status()
	String() string
}

// Idle means no attempt has completed since the last edit or reset.
type Idle struct{}

// Success carries the confirmation message returned by the endpoint.
type Success struct {
	Message string
}

// Failure carries the reason the last attempt failed.
type Failure struct {
	Reason string
}

func (Idle) status()    {}
func (Success) status() {}
func (Failure) status() {}

func (Idle) String() string    { return "idle" }
func (Success) String() string { return "success" }
func (Failure) String() string { return "error" }

// IsIdle reports whether s is the Idle state.
func IsIdle(s Status) bool {
	_, ok := s.(Idle)
	return ok
}

// Result is returned by Controller.Submit. Exactly one of Message or Error
// is meaningful, depending on Success.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
