package valueobjects

// Status is the progress of an idea.
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusCompleted}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
