package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/calyptra/fnchat/internal/models"
	"github.com/calyptra/fnchat/ui/styles"
)

func RenderMessages(messages []models.Message) string {
	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	toolStyle := styles.ToolStyle()
	programStyle := styles.ProgramStyle()

	for _, msg := range messages {
		if msg.Hidden {
			continue
		}
		switch msg.Type {
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render("Assistant: "+renderMarkdown(msg.Content)) + "\n\n")
		case models.ToolCall:
			b.WriteString(toolStyle.Render("⚙ used "+msg.ToolName) + "\n\n")
		case models.ToolResult:
			b.WriteString(toolStyle.Render("⚙ "+msg.Content) + "\n\n")
		case models.Program:
			b.WriteString(programStyle.Render(msg.Content) + "\n\n")
		}
	}

	return b.String()
}

// renderMarkdown pretty-prints assistant markdown, falling back to the
// raw text when rendering fails.
func renderMarkdown(content string) string {
	rendered, err := glamour.Render(content, "dark")
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}
