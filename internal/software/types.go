package software

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a package as reported by a deployment log.
type Status int

const (
	// StatusUnknown means the package has not been seen yet. It is never stored.
	StatusUnknown Status = iota
	StatusInstalling
	StatusSuccess
	StatusFailed
)

// classifyOrder is the order in which statuses are tried against a line.
// Terminal statuses go first so an overlapping installing pattern cannot
// shadow them.
var classifyOrder = []Status{StatusSuccess, StatusFailed, StatusInstalling}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s Status) String() string {
	switch s {
	case StatusInstalling:
		return "installing"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStatus converts the textual form produced by String back to a Status.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "installing":
		return StatusInstalling, nil
	case "success":
		return StatusSuccess, nil
	case "failed":
		return StatusFailed, nil
	case "unknown", "":
		return StatusUnknown, nil
	default:
		return StatusUnknown, fmt.Errorf("unknown status %q", value)
	}
}

// Identity is the merge key for a package. Both fields are compared verbatim.
type Identity struct {
	Name    string
	Version string
}

func (id Identity) String() string {
	return id.Name + "-" + id.Version
}

// Event is a single classified log line.
type Event struct {
	Identity Identity
	Status   Status
	Source   string // deployment tool that produced the line
	Line     string
}

// Record is the registry's view of one package.
type Record struct {
	Identity  Identity
	Status    Status
	Source    string
	Seq       uint64 // logical last-updated-at, monotonic per registry
	UpdatedAt time.Time
}
