// Package message renders outbound bot messages. Static texts are plain;
// video captions use Telegram MarkdownV2, with all external-origin text
// (video titles, masechta names, URLs) escaped so it cannot break rendering.
package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/dafhistory/daf-history-bot/internal/models"
)

const welcomeText = `Welcome to Daf Yomi History Bot!

I send you daily Jewish History videos from Dr. Henry Abramson's series on AllDaf.org, matching the Daf Yomi schedule.

Commands:
/today - Get today's video now
/help - Show this message

You'll automatically receive the daily video every morning at 6:00 AM Israel time.

Enjoy your learning!`

const helpText = `Daf Yomi History Bot - Help

Available Commands:

/today - Get today's Daf Yomi history video
/help - Show this help message

About:
This bot sends Jewish History videos from AllDaf.org's series by Dr. Henry Abramson. Each video corresponds to the daily Daf Yomi page.

Schedule:
Daily videos are sent automatically at 6:00 AM Israel time.`

const lookupErrorText = `Sorry, I couldn't find today's video. Please try again later.

You can also visit AllDaf.org directly:
https://alldaf.org/series/3940`

const rateLimitedText = "You're sending too many requests. Please wait a moment before trying again."

const loadingText = "Finding today's Daf Yomi history video..."

// Welcome builds the /start reply.
func Welcome() models.OutboundMessage {
	return models.OutboundMessage{Text: welcomeText, ParseMode: models.ParseModePlain}
}

// Help builds the /help reply.
func Help() models.OutboundMessage {
	return models.OutboundMessage{Text: helpText, ParseMode: models.ParseModePlain}
}

// Loading builds the interim notice sent while a /today lookup runs.
func Loading() models.OutboundMessage {
	return models.OutboundMessage{Text: loadingText, ParseMode: models.ParseModePlain}
}

// LookupError builds the reply sent when today's video could not be found.
func LookupError() models.OutboundMessage {
	return models.OutboundMessage{Text: lookupErrorText, ParseMode: models.ParseModePlain}
}

// RateLimited builds the slow-down notice. When wait is positive it names
// the remaining seconds.
func RateLimited(wait time.Duration) models.OutboundMessage {
	text := rateLimitedText
	if secs := int(wait.Seconds()); secs > 0 {
		text = fmt.Sprintf("You're sending too many requests. Please wait %d seconds before trying again.", secs)
	}
	return models.OutboundMessage{Text: text, ParseMode: models.ParseModePlain}
}

// VideoCaption builds the caption attached to a /today reply.
func VideoCaption(video models.VideoInfo) models.OutboundMessage {
	return models.OutboundMessage{
		Text:      caption("📚 *Today's Daf Yomi History*", video),
		ParseMode: models.ParseModeMarkdown,
		VideoURL:  video.VideoURL,
	}
}

// DailyBroadcast builds the scheduled morning message.
func DailyBroadcast(video models.VideoInfo) models.OutboundMessage {
	return models.OutboundMessage{
		Text:      caption("Good morning\\! Here's today's *Daf Yomi History* video:", video),
		ParseMode: models.ParseModeMarkdown,
		VideoURL:  video.VideoURL,
	}
}

func caption(header string, video models.VideoInfo) string {
	ref := models.DafReference{Masechta: video.Masechta, Daf: video.Daf}
	return fmt.Sprintf(
		"%s\n\n*%s*\n%s\n\n[View on AllDaf\\.org](%s)",
		header,
		EscapeMarkdown(ref.Display()),
		EscapeMarkdown(video.Title),
		escapeLinkURL(video.PageURL),
	)
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdown escapes every MarkdownV2 control character in text so it
// renders as literal characters.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// escapeLinkURL escapes the characters MarkdownV2 treats specially inside
// an inline link target.
func escapeLinkURL(url string) string {
	url = strings.ReplaceAll(url, "\\", "\\\\")
	return strings.ReplaceAll(url, ")", "\\)")
}
