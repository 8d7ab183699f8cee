package domain

// Button is a single selectable option attached to a reply.
type Button struct {
	Label    string
	Callback Callback
}

// Reply is an outbound rendered message: text, an optional image and
// an optional keyboard of buttons (rows of columns).
type Reply struct {
	Text     string
	ImageURL string
	Keyboard [][]Button
}
