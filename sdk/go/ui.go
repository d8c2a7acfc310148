package weddingplanner

// Navigator moves the user around the application.
type Navigator interface {
	// Navigate goes to an in-app route such as "/login".
	Navigate(path string)
	// Redirect leaves the application for an external URL.
	Redirect(url string)
}

// Notifier shows short-lived messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}
