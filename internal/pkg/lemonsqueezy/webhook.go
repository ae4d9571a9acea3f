package lemonsqueezy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// 处理的事件
const (
	EventSubscriptionCreated        = "subscription_created"
	EventSubscriptionUpdated        = "subscription_updated"
	EventSubscriptionCancelled      = "subscription_cancelled"
	EventSubscriptionExpired        = "subscription_expired"
	EventSubscriptionPaymentSuccess = "subscription_payment_success"
	EventOrderCreated               = "order_created"
)

var ErrInvalidPayload = errors.New("invalid webhook payload")

// VerifySignature 校验 X-Signature（HMAC-SHA256，hex）
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret = strings.TrimSpace(secret)
	if sig == "" || secret == "" {
		return false
	}

	expected, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign 计算签名，测试和本地调试使用
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type Payload struct {
	Meta Meta `json:"meta"`
	Data Data `json:"data"`
}

type Meta struct {
	EventName  string            `json:"event_name"`
	TestMode   bool              `json:"test_mode"`
	CustomData map[string]json.RawMessage `json:"custom_data"`
}

type Data struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}

type Attributes struct {
	StoreID        int64      `json:"store_id"`
	CustomerID     int64      `json:"customer_id"`
	OrderID        int64      `json:"order_id"`
	ProductID      int64      `json:"product_id"`
	VariantID      int64      `json:"variant_id"`
	Status         string     `json:"status"`
	UserEmail      string     `json:"user_email"`
	RenewsAt       *time.Time `json:"renews_at"`
	EndsAt         *time.Time `json:"ends_at"`
	SubscriptionID int64      `json:"subscription_id"`

	FirstSubscriptionItem *struct {
		ID int64 `json:"id"`
	} `json:"first_subscription_item"`

	FirstOrderItem *struct {
		OrderID   int64 `json:"order_id"`
		ProductID int64 `json:"product_id"`
		VariantID int64 `json:"variant_id"`
	} `json:"first_order_item"`
}

// ParsePayload 解析 webhook 请求体
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrInvalidPayload
	}
	if p.Meta.EventName == "" {
		return nil, ErrInvalidPayload
	}
	return &p, nil
}

// UserID 结账时附带的用户 ID，字符串和数字都接受
func (p *Payload) UserID() (int64, bool) {
	raw, ok := p.Meta.CustomData["user_id"]
	if !ok {
		return 0, false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ResourceID data.id 转为数字
func (p *Payload) ResourceID() int64 {
	id, _ := strconv.ParseInt(p.Data.ID, 10, 64)
	return id
}

// SubscriptionItemID 订阅项 ID
func (p *Payload) SubscriptionItemID() int64 {
	if p.Data.Attributes.FirstSubscriptionItem == nil {
		return 0
	}
	return p.Data.Attributes.FirstSubscriptionItem.ID
}

// OrderVariant 订单事件中的商品和 variant
func (p *Payload) OrderVariant() (productID, variantID int64) {
	item := p.Data.Attributes.FirstOrderItem
	if item == nil {
		return p.Data.Attributes.ProductID, p.Data.Attributes.VariantID
	}
	return item.ProductID, item.VariantID
}
