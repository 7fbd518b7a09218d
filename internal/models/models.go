package models

import "fmt"

// DafReference identifies a single Daf Yomi page. The masechta name uses
// the AllDaf spelling, already converted from the Hebcal form.
type DafReference struct {
	Masechta string `json:"masechta"`
	Daf      int    `json:"daf"`
}

// Display returns the reference as it appears in video titles, e.g. "Berachos 2".
func (r DafReference) Display() string {
	return fmt.Sprintf("%s %d", r.Masechta, r.Daf)
}

// VideoInfo describes a Jewish History video located on AllDaf.
// VideoURL is empty when no direct MP4 link could be extracted; the caption
// is then sent as a plain message instead.
type VideoInfo struct {
	Title    string `json:"title"`
	PageURL  string `json:"page_url"`
	VideoURL string `json:"video_url,omitempty"`
	Masechta string `json:"masechta"`
	Daf      int    `json:"daf"`
}

// ParsedCommand is the result of tokenizing an inbound message.
// Name is empty when the text was not addressed to this bot as a command.
type ParsedCommand struct {
	Name string
	Args []string
	Raw  string
}

// IsCommand reports whether the message parsed as a command.
func (c ParsedCommand) IsCommand() bool {
	return c.Name != ""
}

// ParseMode selects the Telegram rendering of an outbound message.
type ParseMode string

const (
	ParseModePlain    ParseMode = ""
	ParseModeMarkdown ParseMode = "MarkdownV2"
)

// OutboundMessage is a fully rendered message ready for delivery.
type OutboundMessage struct {
	Text      string
	ParseMode ParseMode
	VideoURL  string
}
