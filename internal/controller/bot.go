package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/zenbeauty/salon-assistant/internal/agent"
	"github.com/zenbeauty/salon-assistant/internal/catalog"
	"go.uber.org/zap"
)

// BotController wires Telegram updates into the assistant. Commands are
// handled directly; everything else goes through the agent loop.
type BotController struct {
	bot     *bot.Bot
	agent   *agent.Agent
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func NewBotController(botInstance *bot.Bot, assistant *agent.Agent, cat *catalog.Catalog, logger *zap.Logger) *BotController {
	return &BotController{
		bot:     botInstance,
		agent:   assistant,
		catalog: cat,
		logger:  logger,
	}
}

// RegisterHandlers registers command and message handlers.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/services", bot.MatchTypeExact, c.handleServices)

	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handleTextMessage)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Start talking to the salon assistant"},
		{Command: "help", Description: "What the assistant can do"},
		{Command: "services", Description: "Services and specialists"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start runs the long-polling loop until the context is cancelled.
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Welcome to Zen Beauty Salon Assistant! How may I assist you today?",
	})
}

func (c *BotController) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "I can help you with:\n" +
		"- checking availability for a specialist or a service\n" +
		"- booking, rescheduling and cancelling appointments\n" +
		"- reminding you of your upcoming appointments\n" +
		"- general questions about the salon (hours, parking, policies)\n\n" +
		"Just write what you need, for example:\n" +
		"\"What does emma thompson have free on Friday?\""

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText,
	})
}

func (c *BotController) handleServices(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("Our services:\n\n")
	for _, entry := range c.catalog.All() {
		names := make([]string, 0, len(entry.Specialists))
		for _, sp := range entry.Specialists {
			names = append(names, sp.Name)
		}
		fmt.Fprintf(&sb, "%s: %s\n", entry.Service, strings.Join(names, ", "))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   sb.String(),
	})
}

func (c *BotController) handleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Commands are handled by their own handlers.
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	chatID := update.Message.Chat.ID

	b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})

	reply, err := c.agent.Chat(ctx, strconv.FormatInt(chatID, 10), update.Message.Text)
	if err != nil {
		c.logger.Error("Agent turn failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Something went wrong on our side. Please try again in a moment.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   reply,
	})
}
