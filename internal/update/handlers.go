package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/calyptra/fnchat/internal/eventbus"
	"github.com/calyptra/fnchat/internal/models"
)

// HandleKeyMsgWithEventBus handles keyboard input using the event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+l":
		if chatReady {
			if err := eb.SendToCore(eventbus.ClearConversationEvent{}); err != nil {
				appModel.Status = "Error clearing conversation: " + err.Error()
			}
		}
		return nil
	case "enter":
		if strings.TrimSpace(appModel.Input) == "" {
			return nil
		}
		if !chatReady {
			appModel.Input = ""
			appModel.Status = "Chat service not available"
			return nil
		}
		event := parseInput(appModel.Input)
		if err := eb.SendToCore(event); err != nil {
			appModel.Status = "Error sending message: " + err.Error()
			return nil
		}
		appModel.Input = ""
	case "backspace":
		if len(appModel.Input) > 0 {
			appModel.Input = appModel.Input[:len(appModel.Input)-1]
		}
	default:
		if len(keyMsg.String()) == 1 {
			appModel.Input += keyMsg.String()
		}
	}
	return nil
}

// parseInput turns the raw input line into a send event. The
// "/image <url> <text>" form attaches an image to the message.
func parseInput(input string) eventbus.SendMessageEvent {
	if rest, ok := strings.CutPrefix(input, "/image "); ok {
		url, text, found := strings.Cut(strings.TrimSpace(rest), " ")
		if found {
			return eventbus.SendMessageEvent{Message: text, ImageURL: url}
		}
		return eventbus.SendMessageEvent{Message: "Describe this image.", ImageURL: rest}
	}
	return eventbus.SendMessageEvent{Message: input}
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent replaces the UI snapshot with the core's latest.
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Messages = event.Messages
		appModel.Loading = event.Loading
		appModel.RequestStatus = event.RequestStatus

		switch {
		case event.RequestStatus != "":
			appModel.Status = "Error: " + event.RequestStatus
		case event.Loading:
			appModel.Status = "Thinking"
		default:
			appModel.Status = "Ready"
		}
	}

	return nil
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
