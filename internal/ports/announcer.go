package ports

// Announcer speaks a text string. Fire-and-forget: it must not block the
// caller and reports no completion.
type Announcer interface {
	Announce(text string)
}
