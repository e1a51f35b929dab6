package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/http/response"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/apierr"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

type ContentTemplateHandler struct {
	templates services.ContentTemplateService
}

func NewContentTemplateHandler(templates services.ContentTemplateService) *ContentTemplateHandler {
	return &ContentTemplateHandler{templates: templates}
}

// GET|POST /api/content-templates
func (h *ContentTemplateHandler) ListContentTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, apierr.Upstream("list_templates_failed", err), "list_templates_failed")
		return
	}
	response.RespondOK(c, gin.H{"templates": templates})
}
