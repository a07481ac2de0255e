package exception

// Status is the state of one try-block.
type Status int

const (
	Entered Status = iota
	Thrown
	Handled
	Finalized
)

var statusNames = [...]string{
	Entered:   "Entered",
	Thrown:    "Thrown",
	Handled:   "Handled",
	Finalized: "Finalized",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}
