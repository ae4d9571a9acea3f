package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/internal/pkg/lemonsqueezy"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

const (
	signatureHeader = "X-Signature"
	maxWebhookBody  = 1 << 20
)

type BillingHandler struct {
	webhookService *service.WebhookService
}

func NewBillingHandler(webhookService *service.WebhookService) *BillingHandler {
	return &BillingHandler{webhookService: webhookService}
}

// Webhook Lemon Squeezy 回调
// POST /api/v1/billing/webhook
//
// 签名错误和记录失败返回非 2xx 让对方重投；处理失败的事件已落库，由定时任务重试，返回 200
func (h *BillingHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ParamError(c, "请求体读取失败")
		return
	}

	result, err := h.webhookService.Handle(c.Request.Context(), body, c.GetHeader(signatureHeader))
	switch {
	case err == nil:
		response.Success(c, result)
	case errors.Is(err, service.ErrInvalidSignature):
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
			Code:    response.CodeAuthFailed,
			Message: err.Error(),
		})
	case errors.Is(err, lemonsqueezy.ErrInvalidPayload):
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Code:    response.CodeParamError,
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrWebhookProcessing):
		response.ErrorWithData(c, response.CodeBillingError, err.Error(), result)
	default:
		logrus.WithError(err).Error("webhook not recorded")
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Code:    response.CodeServerError,
			Message: "webhook 记录失败",
		})
	}
}
