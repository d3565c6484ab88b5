package logging

// compilationLogEntry is one line of the compilation report file.
type compilationLogEntry struct {
	Time          string                   `json:"time"`
	OperationName string                   `json:"operationName"`
	Category      string                   `json:"category"`
	Properties    compilationLogEntryProps `json:"properties"`
}

type compilationLogEntryProps struct {
	Source        string `json:"source"`
	Outcome       string `json:"outcome"`
	Stage         string `json:"stage"`
	Digest        string `json:"digest,omitempty"`
	DefaultAction string `json:"defaultAction,omitempty"`
	Rules         int    `json:"rules"`
	Rule          string `json:"rule,omitempty"`
	OtherRule     string `json:"otherRule,omitempty"`
	Message       string `json:"message,omitempty"`
	ErrorType     string `json:"errorType,omitempty"`
}

const (
	operationName = "WebACLCompilation"

	categoryResult  = "CompilationResult"
	categoryWarning = "CompilationWarning"

	outcomeCompiled = "Compiled"
	outcomeFailed   = "Failed"
	outcomeWarning  = "Warning"
)
