package components

import (
	"strings"

	"github.com/calyptra/fnchat/ui/styles"
)

func RenderStatus(status, requestStatus string, loading bool, loadingDots, width int) string {
	if requestStatus != "" {
		return styles.ErrorStyle(width).Render(status)
	}

	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}
	return styles.StatusStyle(width).Render(statusContent)
}
