package models

// AppModel holds the terminal UI state, nothing conversational beyond
// the rendered snapshot pushed by the core.
type AppModel struct {
	Messages      []Message // conversation snapshot to display
	Input         string    // user input field
	Status        string    // status bar text
	RequestStatus string    // last turn's error status, empty when fine
	Loading       bool      // a turn is in flight
	LoadingDots   int       // animation counter for the loading row
	Width         int       // terminal width
	Height        int       // terminal height
	ServiceReady  bool      // whether the chat service can reach a model
}
