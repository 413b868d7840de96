package model

// Workflow status names. Statuses are store rows looked up by name, not a
// fixed enum. New email tickets land in StatusNameToDo, and a transition to
// StatusNameDone triggers the resolution notification.
const (
	StatusNameToDo       = "To Do"
	StatusNameInProgress = "In Progress"
	StatusNameDone       = "Done"
)

// Status is a workflow state a ticket can be in.
type Status struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}
