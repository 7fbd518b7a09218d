// Package command tokenizes inbound Telegram messages into bot commands.
// It only classifies and splits; deciding whether a name is a supported
// command is the dispatcher's job.
package command

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dafhistory/daf-history-bot/internal/models"
)

// Known command names handled by the bot.
const (
	Start = "start"
	Help  = "help"
	Today = "today"
)

// Parse tokenizes text into a ParsedCommand. A message is a command only if
// it begins with '/' immediately followed by a letter; anything else (empty
// text, a bare "/", "/ x", plain text) yields an empty Name.
//
// The command name is lowercased and an "@botUsername" suffix is stripped
// case-insensitively. A command addressed to a different bot is treated as
// non-command. Arguments keep their original casing.
func Parse(text, botUsername string) models.ParsedCommand {
	result := models.ParsedCommand{Raw: text}

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || trimmed[0] != '/' {
		return result
	}

	fields := strings.Fields(trimmed)
	token := fields[0][1:]
	first, _ := utf8.DecodeRuneInString(token)
	if token == "" || !unicode.IsLetter(first) {
		return result
	}

	if at := strings.IndexByte(token, '@'); at >= 0 {
		mention := token[at+1:]
		if !strings.EqualFold(mention, botUsername) {
			return result
		}
		token = token[:at]
	}
	if token == "" {
		return result
	}

	result.Name = strings.ToLower(token)
	if len(fields) > 1 {
		result.Args = fields[1:]
	}
	return result
}
