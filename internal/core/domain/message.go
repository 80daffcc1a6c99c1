package domain

// Message is one outbound chat payload. Rendering to the transport's wire
// format happens in the adapter layer; the core only produces these values.
type Message interface {
	message()
}

// Text is a plain text bubble.
type Text struct {
	Text string
}

// Option is one tappable choice in a Buttons message. Picking it sends
// SendText back as the user's next message.
type Option struct {
	Label    string
	SendText string
}

// Buttons asks the user to pick one of up to four labeled options.
type Buttons struct {
	Alt     string
	Title   string
	Options []Option
}

// SearchPage is one page of search results with previous/next affordances.
type SearchPage struct {
	Field      string
	Value      string
	Page       int // zero-based
	TotalPages int
	Total      int
	Body       string
	HasPrev    bool
	HasNext    bool
}

func (Text) message()       {}
func (Buttons) message()    {}
func (SearchPage) message() {}
