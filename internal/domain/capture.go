package domain

// CaptureStatus classifies the outcome of one capture attempt.
type CaptureStatus string

const (
	// CaptureOK means the foreground application performed the copy and the
	// selection held visible text.
	CaptureOK CaptureStatus = "ok"
	// CaptureEmptySelection means the copy happened but the selection was
	// blank. Distinct from a timeout: the foreground application responded.
	CaptureEmptySelection CaptureStatus = "empty-selection"
	// CaptureTimeout means no clipboard change was observed within the
	// budget. This is never folded into empty-selection.
	CaptureTimeout CaptureStatus = "capture-timeout"
)

// CaptureResult is produced once per trigger and consumed immediately by the
// dispatcher. It is never persisted.
type CaptureResult struct {
	Text   string
	Status CaptureStatus
}

// HasText reports whether the capture yielded usable, non-blank text.
func (r CaptureResult) HasText() bool {
	if r.Status != CaptureOK {
		return false
	}
	for _, c := range r.Text {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return true
		}
	}
	return false
}
