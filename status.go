package rangegrab

import "slices"

// Class is the classification of a fetch exit status.
type Class int

// Class values.
const (
	// ClassSuccess marks a fetched sub-item.
	ClassSuccess Class = iota
	// ClassSkip marks an expected absence or denial; never retried.
	ClassSkip
	// ClassTransient marks a retryable failure with growing backoff.
	ClassTransient
	// ClassGeneric marks any other failure, retried a few times with a fixed delay.
	ClassGeneric
)

// String returns the class name used in logs and metrics.
func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassSkip:
		return "skip"
	case ClassTransient:
		return "transient"
	default:
		return "generic"
	}
}

// ExitPolicy maps fetch tool exit statuses to classes. The values are a
// versioned contract with the fetch tool, so they are configuration rather
// than constants baked into the controller.
type ExitPolicy struct {
	Success   int   `yaml:"success"`
	Skip      []int `yaml:"skip"`
	Transient int   `yaml:"transient"`
}

// DefaultExitPolicy matches the wget-lua fetch script: 100 and 101 report a
// missing or private item, 102 an unexpected server response.
var DefaultExitPolicy = ExitPolicy{
	Success:   0,
	Skip:      []int{100, 101},
	Transient: 102,
}

// Classify returns the class of a fetch exit status.
func (p ExitPolicy) Classify(status int) Class {
	switch {
	case status == p.Success:
		return ClassSuccess
	case slices.Contains(p.Skip, status):
		return ClassSkip
	case status == p.Transient:
		return ClassTransient
	default:
		return ClassGeneric
	}
}

// Validate returns EINVALID if the policy assigns one status to two classes.
func (p ExitPolicy) Validate() error {
	if p.Success == p.Transient {
		return Errorf(EINVALID, "exit status %d is both success and transient", p.Success)
	}
	for _, s := range p.Skip {
		if s == p.Success || s == p.Transient {
			return Errorf(EINVALID, "skip exit status %d overlaps another class", s)
		}
	}
	return nil
}
