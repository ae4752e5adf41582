package models

// ChangeAction is the repository operation a CodeChange requests.
type ChangeAction string

const (
	// ActionCreate adds a new file.
	ActionCreate ChangeAction = "create"
	// ActionUpdate replaces the content of an existing file.
	ActionUpdate ChangeAction = "update"
	// ActionDelete removes a file.
	ActionDelete ChangeAction = "delete"
)

// Valid returns true if the action is a known value.
func (a ChangeAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// CodeChange is one file modification parsed from an agent's output.
type CodeChange struct {
	// Path is the repository-relative file path.
	Path string `json:"path"`
	// Content is the full file content after the change. Empty for deletes.
	Content string `json:"content,omitempty"`
	// Action is the operation to perform.
	Action ChangeAction `json:"action"`
}

// NewsArticle is one item parsed from a collected news digest.
type NewsArticle struct {
	// Title is the headline of the article.
	Title string `json:"title"`
	// Summary is the gathered description, possibly multi-line.
	Summary string `json:"summary,omitempty"`
	// URL is the source link when one was present in the text.
	URL string `json:"url,omitempty"`
}
