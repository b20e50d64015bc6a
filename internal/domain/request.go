package domain

// OperationRequest is the unit of work handed to the execution core. It is
// owned by the dispatch call that created it and never shared between
// concurrent invocations.
type OperationRequest struct {
	// CorrelationID groups requests that supersede each other: the session
	// id for chat turns, a fresh ephemeral id for one-shot operations.
	CorrelationID string
	// SessionID is set only for window deliveries that belong to a chat
	// session.
	SessionID         string
	OperationName     string
	SystemInstruction string
	Prompt            string
	Model             ModelDefinition
	ReasoningEffort   int
	Mode              DeliveryMode
	// Supersede requests cancellation of the previous in-flight request
	// sharing the correlation id. Chat turns supersede; one-shots do not.
	Supersede bool
}

// Delivery carries a completed (or failed) request back to the interactive
// loop. Seq is the per-correlation sequence number assigned at submission;
// the consumer drops deliveries whose Seq is no longer current.
type Delivery struct {
	Request OperationRequest
	Seq     uint64
	Text    string
	Err     error
}
