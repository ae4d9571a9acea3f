package lemonsqueezy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qs3c/inbox_premium_server/config"
)

const (
	defaultAPIURL = "https://api.lemonsqueezy.com/v1"
	contentType   = "application/vnd.api+json"
)

var ErrNotConfigured = errors.New("lemon squeezy api key is not configured")

// Client Lemon Squeezy REST API 客户端
type Client struct {
	APIKey     string
	APIURL     string
	HTTPClient *http.Client
}

func NewClient(cfg config.BillingConfig) *Client {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		APIKey: strings.TrimSpace(cfg.APIKey),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type subscriptionPatch struct {
	Data struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			VariantID int64 `json:"variant_id"`
			// 切换套餐时立即开票
			InvoiceImmediately bool `json:"invoice_immediately"`
		} `json:"attributes"`
	} `json:"data"`
}

// UpdateSubscriptionVariant 切换订阅到新的 variant
func (c *Client) UpdateSubscriptionVariant(ctx context.Context, subscriptionID, variantID int64) error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}

	var body subscriptionPatch
	body.Data.Type = "subscriptions"
	body.Data.ID = strconv.FormatInt(subscriptionID, 10)
	body.Data.Attributes.VariantID = variantID
	body.Data.Attributes.InvoiceImmediately = true

	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/subscriptions/%d", c.APIURL, subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("lemon squeezy update subscription failed: status=%d body=%s", resp.StatusCode, string(msg))
	}
	return nil
}
