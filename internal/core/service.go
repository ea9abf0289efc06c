package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/chat"
	"github.com/calyptra/fnchat/internal/completion"
	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/eventbus"
	"github.com/calyptra/fnchat/internal/models"
	"github.com/calyptra/fnchat/internal/resource"
	"github.com/calyptra/fnchat/internal/tools"
)

// ChatService owns the orchestrator and translates between bus events
// and conversation turns. It always exists, even with an unusable
// config, so the UI has something to talk to.
type ChatService struct {
	config   *config.Config
	eventBus *eventbus.EventBus
	orch     *Orchestrator
	store    *resource.Store
	registry *tools.Registry
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	preamble []models.Message
}

func NewChatService(cfg *config.Config, eb *eventbus.EventBus, logger *zap.Logger) (*ChatService, error) {
	store, err := resource.NewStore(cfg.ResourceDir)
	if err != nil {
		return nil, fmt.Errorf("resource store: %w", err)
	}

	registry := tools.NewBuiltinRegistry(cfg, store)
	ctx, cancel := context.WithCancel(context.Background())

	service := &ChatService{
		config:   cfg,
		eventBus: eb,
		store:    store,
		registry: registry,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	// No completion client without a configured profile. The service
	// still runs so the UI can show setup instructions.
	if cfg.IsValid() {
		client := completion.NewClient(cfg, logger)
		invoker := tools.NewInvoker(registry, logger)
		service.orch = NewOrchestrator(client, invoker, registry.Specs(), cfg, logger)
		service.orch.OnUpdate(service.pushStateToUI)
	}

	service.buildPreamble(cfg)
	return service, nil
}

// Start pushes the initial snapshot and begins consuming UI events.
func (cs *ChatService) Start() {
	cs.pushStateToUI()
	go cs.eventLoop()
}

func (cs *ChatService) Stop() {
	cs.cancel()
}

// Store exposes the resource store so other surfaces can redeem
// locators produced by tools.
func (cs *ChatService) Store() *resource.Store {
	return cs.store
}

// Registry exposes the tool registry for listing and discovery.
func (cs *ChatService) Registry() *tools.Registry {
	return cs.registry
}

func (cs *ChatService) IsReady() bool {
	return cs.orch != nil
}

func (cs *ChatService) eventLoop() {
	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		}
	}
}

func (cs *ChatService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SendMessageEvent:
		// Turns block until done, so run each on its own goroutine.
		// The orchestrator rejects overlapping submissions itself.
		go cs.runTurn(e)
	case eventbus.ClearConversationEvent:
		if cs.orch != nil {
			cs.orch.Clear()
		}
	}
}

func (cs *ChatService) runTurn(e eventbus.SendMessageEvent) {
	if cs.orch == nil {
		cs.pushStateToUI()
		return
	}

	var err error
	if e.ImageURL != "" {
		err = cs.orch.SendWithImage(cs.ctx, e.Message, e.ImageURL)
	} else {
		err = cs.orch.Send(cs.ctx, e.Message)
	}
	if err != nil {
		cs.logger.Warn("turn ended with error", zap.Error(err))
	}
}

// pushStateToUI sends the full conversation snapshot. Snapshots are
// small and the UI replaces wholesale, which keeps the two sides from
// drifting apart after a rollback or clear.
func (cs *ChatService) pushStateToUI() {
	update := eventbus.StateUpdateEvent{
		Messages: cs.preamble,
	}
	if cs.orch != nil {
		update.Messages = append(update.Messages, convertMessages(cs.orch.Messages())...)
		update.Loading = cs.orch.Loading()
		update.RequestStatus = cs.orch.RequestStatus()
	}

	if err := cs.eventBus.SendToUI(update); err != nil {
		cs.logger.Warn("failed to push state to UI", zap.Error(err))
	}
}

func (cs *ChatService) buildPreamble(cfg *config.Config) {
	add := func(content string) {
		cs.preamble = append(cs.preamble, models.Message{Content: content, Type: models.Program})
	}

	add("-- FNCHAT --")
	if cfg.IsValid() {
		add(fmt.Sprintf("Active Profile: %s [OK]", cfg.ActiveProfile))
		add(fmt.Sprintf("Model: %s", cfg.Model()))
		if names := cs.registry.Names(); len(names) > 0 {
			add(fmt.Sprintf("Tools: %s", strings.Join(names, ", ")))
		}
		add("Ready to chat! Type your message and press Enter")
	} else {
		add(fmt.Sprintf("Active Profile: %s [NOT CONFIGURED]", cfg.ActiveProfile))
		add("Configure your profile to start chatting:")
		add("• Run: fnchat profile add <name>")
		add("• Or set FNCHAT_API_KEY in the environment")
	}
	add("Controls: Enter to send, Ctrl+L to clear, Ctrl+C to exit")
	add("")
}

// convertMessages maps conversation entries to their UI form. Hidden
// turns keep their flag so the renderer can skip them; an annotated
// final turn grows a visible tool-activity line.
func convertMessages(history []chat.Message) []models.Message {
	out := make([]models.Message, 0, len(history))
	for _, m := range history {
		if m.Metadata.Loading {
			continue
		}
		switch m.Role {
		case chat.RoleUser:
			out = append(out, models.Message{Content: m.Content, Type: models.User})
		case chat.RoleAssistant:
			if calls := m.Metadata.FunctionCalls; len(calls) > 0 {
				names := make([]string, 0, len(calls))
				for _, c := range calls {
					names = append(names, c.Name)
				}
				out = append(out, models.Message{
					Content:  strings.Join(names, ", "),
					Type:     models.ToolCall,
					ToolName: strings.Join(names, ", "),
				})
			}
			msg := models.Message{
				Content: m.Content,
				Type:    models.Assistant,
				Hidden:  m.Metadata.Hide,
			}
			for _, c := range m.ToolCalls {
				out = append(out, models.Message{
					Content:    c.Function.Name,
					Type:       models.ToolCall,
					Hidden:     true,
					ToolCallID: c.ID,
					ToolName:   c.Function.Name,
					ToolArgs:   c.Function.Arguments,
				})
			}
			if m.Content != "" || !m.HasToolCalls() {
				out = append(out, msg)
			}
		case chat.RoleTool:
			out = append(out, models.Message{
				Content:    m.Content,
				Type:       models.ToolResult,
				Hidden:     m.Metadata.Hide,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return out
}
