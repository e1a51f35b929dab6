package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/http/response"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/apierr"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

// flag accepts true, "true" and "1". Form posts send every value as a string.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	return f.UnmarshalParam(s)
}

func (f *flag) UnmarshalParam(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		*f = false
		return nil
	}
	*f = flag(v)
	return nil
}

type sendOutboundRequest struct {
	To                    string `json:"To" form:"To"`
	From                  string `json:"From" form:"From"`
	Body                  string `json:"Body" form:"Body"`
	ContentTemplateSid    string `json:"ContentTemplateSid" form:"ContentTemplateSid"`
	OpenChatFlag          flag   `json:"OpenChatFlag" form:"OpenChatFlag"`
	KnownAgentRoutingFlag flag   `json:"KnownAgentRoutingFlag" form:"KnownAgentRoutingFlag"`
	WorkerSid             string `json:"WorkerSid" form:"WorkerSid"`
	WorkerFriendlyName    string `json:"WorkerFriendlyName" form:"WorkerFriendlyName"`
	WorkspaceSid          string `json:"WorkspaceSid" form:"WorkspaceSid"`
	WorkflowSid           string `json:"WorkflowSid" form:"WorkflowSid"`
	QueueSid              string `json:"QueueSid" form:"QueueSid"`
	InboundStudioFlow     string `json:"InboundStudioFlow" form:"InboundStudioFlow"`
}

type OutboundHandler struct {
	outbound services.OutboundService
}

func NewOutboundHandler(outbound services.OutboundService) *OutboundHandler {
	return &OutboundHandler{outbound: outbound}
}

// POST /api/outbound/messages
// POST /sendOutboundMessage
func (h *OutboundHandler) SendOutboundMessage(c *gin.Context) {
	var req sendOutboundRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	in := services.SendOutboundInput{
		To:                 req.To,
		From:               req.From,
		Body:               req.Body,
		ContentTemplateSID: req.ContentTemplateSid,
		OpenChat:           bool(req.OpenChatFlag),
		KnownAgentRouting:  bool(req.KnownAgentRoutingFlag),
		WorkerSID:          req.WorkerSid,
		WorkerFriendlyName: req.WorkerFriendlyName,
		WorkspaceSID:       req.WorkspaceSid,
		WorkflowSID:        req.WorkflowSid,
		QueueSID:           req.QueueSid,
		InboundStudioFlow:  req.InboundStudioFlow,
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		if strings.TrimSpace(in.WorkerSID) == "" {
			in.WorkerSID = rd.WorkerSID
		}
		if strings.TrimSpace(in.WorkerFriendlyName) == "" {
			in.WorkerFriendlyName = rd.Identity
		}
	}

	res, err := h.outbound.Send(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		response.RespondAPIError(c, classifySendError(err), "send_failed")
		return
	}
	response.RespondOK(c, res)
}

func classifySendError(err error) error {
	if errors.Is(err, outbound.ErrInvalidRequest) {
		return apierr.BadRequest("invalid_request", err)
	}
	return apierr.Upstream("platform_error", err)
}
