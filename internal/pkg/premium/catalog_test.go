package premium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/model"
)

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		StoreID:  "inbox",
		CallLink: "https://cal.com/inbox/call",
		Tiers: map[string]config.TierBilling{
			"basic_monthly":     {VariantID: 101, PaymentLink: "https://pay.example.com/basic-m"},
			"basic_annually":    {VariantID: 102, PaymentLink: "https://pay.example.com/basic-a"},
			"pro_monthly":       {VariantID: 103},
			"pro_annually":      {VariantID: 104},
			"business_monthly":  {VariantID: 105, PaymentLink: "https://pay.example.com/biz-m"},
			"business_annually": {VariantID: 106, PaymentLink: "https://pay.example.com/biz-a"},
			"copilot_monthly":   {VariantID: 107},
			"lifetime":          {VariantID: 108},
			"seven_day_pass":    {VariantID: 109, PaymentLink: "https://pay.example.com/pass"},
		},
	}
}

func TestPrice_AllTiersPriced(t *testing.T) {
	for _, tier := range AllTiers() {
		assert.Greater(t, Price(tier), 0.0, "tier %s", tier)
	}
	assert.Equal(t, 12.0, Price(model.TierBusinessMonthly))
	assert.Equal(t, 5.0, Price(model.TierBusinessAnnually))
	assert.Equal(t, 499.0, Price(model.TierCopilotMonthly))
	assert.Equal(t, 299.0, Price(model.TierLifetime))
	assert.Equal(t, 7.0, Price(model.TierSevenDayPass))
}

func TestAdditionalEmailPrice(t *testing.T) {
	assert.Equal(t, 6.0, AdditionalEmailPrice(model.TierBasicMonthly))
	assert.Equal(t, 96.0, AdditionalEmailPrice(model.TierBusinessAnnually))
	assert.Equal(t, 0.0, AdditionalEmailPrice(model.TierCopilotMonthly))
	assert.Equal(t, 0.0, AdditionalEmailPrice(model.TierSevenDayPass))
}

func TestDiscount(t *testing.T) {
	assert.InDelta(t, 58.33, Discount(12, 5), 0.01)
	assert.Equal(t, 0.0, Discount(0, 5))
	assert.Equal(t, 0.0, Discount(10, 10))
}

func TestPriceSuffix(t *testing.T) {
	assert.Equal(t, "", PriceSuffix(model.TierSevenDayPass))
	assert.Equal(t, "/month", PriceSuffix(model.TierBasicAnnually))
}

func TestCatalog_SubscriptionTier(t *testing.T) {
	c := NewCatalog(testBillingConfig())

	for i, tier := range AllTiers() {
		got, err := c.SubscriptionTier(int64(101 + i))
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}

	_, err := c.SubscriptionTier(999)
	assert.EqualError(t, err, "unknown variant id: 999")

	_, err = c.SubscriptionTier(0)
	assert.Error(t, err)
}

func TestCatalog_VariantID(t *testing.T) {
	c := NewCatalog(testBillingConfig())

	id, err := c.VariantID(model.TierLifetime)
	require.NoError(t, err)
	assert.Equal(t, int64(108), id)

	_, err = c.VariantID("ENTERPRISE")
	assert.EqualError(t, err, "unknown tier: ENTERPRISE")

	// 未配置 variant
	c = NewCatalog(config.BillingConfig{})
	_, err = c.VariantID(model.TierLifetime)
	assert.Error(t, err)
}

func TestCatalog_Cards(t *testing.T) {
	c := NewCatalog(testBillingConfig())

	business, ok := c.Card(CardBusinessSingle)
	require.True(t, ok)
	assert.Equal(t, "AI Assistant", business.Name)
	assert.True(t, business.MostPopular)
	assert.Equal(t, "https://pay.example.com/biz-a", business.Links[Annually])
	assert.InDelta(t, 58.33, business.DiscountFor(Annually), 0.01)
	assert.Equal(t, 0.0, business.DiscountFor(Monthly))
	assert.InDelta(t, 5.0/12, business.EquivalentMonthlyPrice(Annually), 0.0001)
	assert.Equal(t, 12.0, business.EquivalentMonthlyPrice(Monthly))

	copilot, ok := c.Card(CardCopilot)
	require.True(t, ok)
	assert.Equal(t, "Book a call", copilot.CTA)
	assert.Equal(t, "https://cal.com/inbox/call", copilot.CTALink)
	assert.Equal(t, 0.0, copilot.DiscountFor(Annually))

	pass, ok := c.Card(CardSevenDayPass)
	require.True(t, ok)
	assert.Equal(t, "7 days", pass.Duration)
	assert.Equal(t, model.TierSevenDayPass, pass.Tier(Annually))

	assert.Len(t, c.Cards(), 4)

	_, ok = c.Card("enterprise")
	assert.False(t, ok)
}

func TestCatalog_ManageSubscriptionURL(t *testing.T) {
	c := NewCatalog(testBillingConfig())
	assert.Equal(t, "https://inbox.lemonsqueezy.com/billing", c.ManageSubscriptionURL())
}
