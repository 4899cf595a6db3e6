package bot

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/xaenox/nova-forum/internal/models"
)

// maxMessageLen is Telegram's text limit, counted in UTF-16 code units
const maxMessageLen = 4096

// clipMargin keeps a clipped line clear of the markup that ends it
const clipMargin = 100

// renderFeed formats posts in the given order as MarkdownV2 messages that
// each fit into one Telegram message. Messages break between posts; only a
// post too long on its own is split between its lines.
func renderFeed(feed []models.Post, bot models.BotIdentity) []string {
	var c chunker
	for _, post := range feed {
		var sb strings.Builder
		writePost(&sb, post, bot)
		block := sb.String()

		if textLen(block) <= maxMessageLen {
			c.add(block, "\n")
			continue
		}
		c.flush()
		for _, line := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
			c.add(clipLine(line), "\n")
		}
		c.flush()
	}
	c.flush()
	return c.messages
}

type chunker struct {
	messages []string
	current  strings.Builder
	size     int
}

// add appends part after sep, starting a new message when it would not fit
func (c *chunker) add(part, sep string) {
	if c.current.Len() > 0 && c.size+textLen(sep)+textLen(part) > maxMessageLen {
		c.flush()
	}
	if c.current.Len() > 0 {
		c.current.WriteString(sep)
		c.size += textLen(sep)
	}
	c.current.WriteString(part)
	c.size += textLen(part)
}

func (c *chunker) flush() {
	if c.current.Len() == 0 {
		return
	}
	c.messages = append(c.messages, c.current.String())
	c.current.Reset()
	c.size = 0
}

// clipLine shortens a single oversized line of escaped text
func clipLine(line string) string {
	if textLen(line) <= maxMessageLen {
		return line
	}
	budget := maxMessageLen - clipMargin
	var sb strings.Builder
	for _, r := range line {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if budget-n < 0 {
			break
		}
		budget -= n
		sb.WriteRune(r)
	}
	clipped := sb.String()
	// Never leave half of an escape sequence behind
	if trailing := len(clipped) - len(strings.TrimRight(clipped, "\\")); trailing%2 == 1 {
		clipped = clipped[:len(clipped)-1]
	}
	return clipped + escapeMarkdown("...")
}

func textLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func writePost(sb *strings.Builder, post models.Post, bot models.BotIdentity) {
	if post.Pinned {
		sb.WriteString("📌 ")
	}
	fmt.Fprintf(sb, "*%s*", escapeMarkdown(post.Author))
	if post.Author == bot.Name {
		sb.WriteString(" 🤖")
	}
	fmt.Fprintf(sb, " · _%s_\n", escapeMarkdown(post.CreatedLabel))
	sb.WriteString(escapeMarkdown(post.Content) + "\n")

	if post.Enrichment != nil {
		fmt.Fprintf(sb, "✨ *AI Insight:* %s\n", escapeMarkdown(post.Enrichment.Summary))
		if len(post.Enrichment.Tags) > 0 {
			tags := make([]string, len(post.Enrichment.Tags))
			for i, tag := range post.Enrichment.Tags {
				tags[i] = escapeMarkdown(strings.ReplaceAll(tag, " ", "_"))
			}
			fmt.Fprintf(sb, "%s\n", strings.Join(tags, " "))
		}
	}
	fmt.Fprintf(sb, "❤️ %d · `%s`\n", post.LikeCount, escapeCode(post.ID))

	for _, r := range post.Replies {
		fmt.Fprintf(sb, "  ↳ *%s*", escapeMarkdown(r.Author))
		if r.Author == bot.Name {
			sb.WriteString(" 🤖")
		}
		fmt.Fprintf(sb, ": %s ❤️ %d `%s`\n", escapeMarkdown(r.Content), r.LikeCount, escapeCode(r.ID))
	}
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// escapeCode escapes text inside a MarkdownV2 code span
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}
