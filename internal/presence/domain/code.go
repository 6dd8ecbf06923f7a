package domain

// CodeFailureReason categorises why a submitted temporal code was rejected.
type CodeFailureReason string

const (
	// CodeFailureFormat means the code did not parse as MM:SS:DD.
	CodeFailureFormat CodeFailureReason = "format"
	// CodeFailureTime means the time component fell outside the skew tolerance.
	CodeFailureTime CodeFailureReason = "time"
	// CodeFailureSalt means the salt digits matched neither live generation.
	CodeFailureSalt CodeFailureReason = "salt"
)

// CodeResult is the structured outcome of temporal-code validation. Expected
// carries the set of codes the server currently considers valid, letting the
// caller present an actionable diagnostic without leaking the raw salt.
type CodeResult struct {
	OK       bool
	Reason   CodeFailureReason
	Expected []string
}
