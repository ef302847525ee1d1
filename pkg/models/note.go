package models

// Note is a named piece of text added through the add-note tool.
type Note struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
