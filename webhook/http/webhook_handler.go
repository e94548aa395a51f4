package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

// PushHandler reacts to pushes to the content repository.
type PushHandler interface {
	HandlePushEvent(evt *github.PushEvent) error
}

type WebhookHandler struct {
	webhookSecret []byte
	pushHandler   PushHandler
}

// NewWebhookHandler validates deliveries with secret before passing pushes on.
func NewWebhookHandler(secret string, pushHandler PushHandler) (*WebhookHandler, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is not set")
	}

	return &WebhookHandler{
		webhookSecret: []byte(secret),
		pushHandler:   pushHandler,
	}, nil
}

func (h *WebhookHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/webhook/git", h.HandleGitWebhook)
}

func (h *WebhookHandler) HandleGitWebhook(c *gin.Context) {
	payload, err := github.ValidatePayload(c.Request, h.webhookSecret)
	if err != nil {
		log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("Rejected webhook delivery")
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	eventType := github.WebHookType(c.Request)
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("Unparseable webhook event")
		c.String(http.StatusBadRequest, "Invalid event")
		return
	}

	switch evt := event.(type) {
	case *github.PushEvent:
		err = h.pushHandler.HandlePushEvent(evt)
	default:
		log.Debug().Str("event", eventType).Str("delivery", github.DeliveryID(c.Request)).Msg("Ignoring webhook event")
	}
	if err != nil {
		log.Error().Err(err).Str("delivery", github.DeliveryID(c.Request)).Msg("Error handling push event")
		c.String(http.StatusInternalServerError, "Error handling event")
		return
	}

	c.Status(http.StatusNoContent)
}
