package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/core"
	"github.com/calyptra/fnchat/internal/dispatcher"
	"github.com/calyptra/fnchat/internal/eventbus"
	"github.com/calyptra/fnchat/internal/models"
)

// Application wires the chat service, event bus and terminal UI
// together and manages their lifecycle.
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ChatService
	model      *AppModel
	logger     *zap.Logger
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

func NewApplication(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)

	// The service always exists; an unusable config just means it
	// shows setup instructions instead of chatting.
	chatService, err := core.NewChatService(cfg, eb, logger)
	if err != nil {
		return nil, err
	}

	model := &AppModel{
		appModel:   initialAppModel(chatService),
		dispatcher: disp,
	}

	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    chatService,
		model:      model,
		logger:     logger,
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model)
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.eventBus.Close()
}

// Service exposes the chat service for other entry points.
func (app *Application) Service() *core.ChatService {
	return app.service
}

func initialAppModel(chatService *core.ChatService) models.AppModel {
	// The UI starts empty; the core pushes the first snapshot.
	return models.AppModel{
		Messages:     make([]models.Message, 0),
		Status:       "Ready",
		ServiceReady: chatService.IsReady(),
	}
}
