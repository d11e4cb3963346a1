package checks

import "fmt"

// Status is the rolled-up outcome of one or more check results.
type Status int

const (
	StatusSuccess Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result holds one check's findings as flat, human-readable strings.
// Consumers parse specific message shapes out of these lines, so the exact
// wording of findings is load-bearing. Append-only while the check runs,
// immutable once returned.
type Result struct {
	Info     []string `json:"info"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// Infof appends an informational finding.
func (r *Result) Infof(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// Warnf appends a warning finding.
func (r *Result) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Errorf appends an error finding.
func (r *Result) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Status returns error if any error finding exists, else warning if any
// warning exists, else success.
func (r Result) Status() Status {
	switch {
	case len(r.Errors) > 0:
		return StatusError
	case len(r.Warnings) > 0:
		return StatusWarning
	default:
		return StatusSuccess
	}
}
