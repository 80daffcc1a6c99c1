package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"bgclub-bot/internal/adapters/line"
	"bgclub-bot/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// webhookBody mirrors the Messaging API webhook envelope, trimmed to the
// fields the bot reads.
type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// WebhookHandler receives Messaging API events and feeds text messages
// into the conversation service.
type WebhookHandler struct {
	conversation *services.ConversationService
	client       *line.Client
	logger       *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(conversation *services.ConversationService, client *line.Client, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		conversation: conversation,
		client:       client,
		logger:       logger,
	}
}

// Receive handles POST /webhook
// @Summary LINE webhook endpoint
// @Description Receives Messaging API events; signature-verified
// @Tags LINE
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	if !h.verifySignature(body, c.Get("X-Line-Signature")) {
		h.logger.Warn("⚠️ webhook signature mismatch", zap.String("ip", c.IP()))
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	for _, event := range payload.Events {
		if event.Type != "message" || event.Message.Type != "text" || event.Source.UserID == "" {
			continue
		}

		messages := h.conversation.Handle(c.Context(), event.Source.UserID, event.Message.Text)
		if err := h.client.Reply(c.Context(), event.ReplyToken, messages); err != nil {
			h.logger.Error("❌ reply failed",
				zap.String("uuid", event.Source.UserID), zap.Error(err))
		}
	}

	// The platform only cares that we acknowledged.
	return c.JSON(fiber.Map{"status": "ok"})
}

// verifySignature checks the HMAC-SHA256 signature the platform puts on
// every delivery.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.client.ChannelSecret()))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
