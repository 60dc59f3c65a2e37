package conversation

import (
	"strings"

	"ai-chatbot-be/internal/entity"
)

const (
	titleMaxWords = 8
	titleMaxRunes = 50
	titleCutRunes = 47
	titleEllipsis = "..."
)

// TitleFor derives a conversation title from the first user message.
func TitleFor(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return entity.DefaultConversationTitle
	}
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}

	title := strings.Join(words, " ")
	if runes := []rune(title); len(runes) > titleMaxRunes {
		title = string(runes[:titleCutRunes]) + titleEllipsis
	}
	return title
}
