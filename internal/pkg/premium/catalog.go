package premium

import (
	"fmt"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/model"
)

// Frequency 计费周期
type Frequency string

const (
	Monthly  Frequency = "monthly"
	Annually Frequency = "annually"
)

// ParseFrequency 未知值按年付处理
func ParseFrequency(s string) Frequency {
	if s == string(Monthly) {
		return Monthly
	}
	return Annually
}

// Price 套餐展示价格（美元）
func Price(tier model.PremiumTier) float64 {
	switch tier {
	case model.TierBasicMonthly, model.TierProMonthly, model.TierBusinessMonthly:
		return 12
	case model.TierBasicAnnually, model.TierProAnnually, model.TierBusinessAnnually:
		return 5
	case model.TierCopilotMonthly:
		return 499
	case model.TierLifetime:
		return 299
	case model.TierSevenDayPass:
		return 7
	default:
		return 0
	}
}

// AdditionalEmailPrice 每增加一个邮箱账号的价格
func AdditionalEmailPrice(tier model.PremiumTier) float64 {
	switch tier {
	case model.TierBasicMonthly, model.TierProMonthly:
		return 6
	case model.TierBasicAnnually, model.TierProAnnually:
		return 4
	case model.TierBusinessMonthly:
		return 12
	case model.TierBusinessAnnually:
		return 96
	case model.TierLifetime:
		return 99
	default:
		return 0
	}
}

// Discount 年付相对月付的折扣百分比
func Discount(monthly, annually float64) float64 {
	if monthly == 0 {
		return 0
	}
	return (monthly - annually) / monthly * 100
}

// PriceSuffix 价格后缀，7 天通行证没有
func PriceSuffix(tier model.PremiumTier) string {
	if tier == model.TierSevenDayPass {
		return ""
	}
	return "/month"
}

// Card 定价页的一张套餐卡片
type Card struct {
	Key         string
	Name        string
	Description string
	Features    []string
	CTA         string
	CTALink     string
	MostPopular bool
	Duration    string
	Tiers       map[Frequency]model.PremiumTier
	Links       map[Frequency]string
}

// Tier 指定周期对应的套餐
func (c *Card) Tier(freq Frequency) model.PremiumTier {
	return c.Tiers[freq]
}

// DisplayedPrice 指定周期的展示价格
func (c *Card) DisplayedPrice(freq Frequency) float64 {
	return Price(c.Tiers[freq])
}

// EquivalentMonthlyPrice 折算到每月的价格
func (c *Card) EquivalentMonthlyPrice(freq Frequency) float64 {
	if freq == Annually {
		return Price(c.Tiers[Annually]) / 12
	}
	return Price(c.Tiers[Monthly])
}

// AdditionalPrice 指定周期每个额外邮箱的价格
func (c *Card) AdditionalPrice(freq Frequency) float64 {
	return AdditionalEmailPrice(c.Tiers[freq])
}

// DiscountFor 月付没有折扣
func (c *Card) DiscountFor(freq Frequency) float64 {
	if freq == Monthly || c.Tiers[Monthly] == c.Tiers[Annually] {
		return 0
	}
	return Discount(Price(c.Tiers[Monthly]), Price(c.Tiers[Annually]))
}

const (
	CardBasic          = "basic"
	CardBusiness       = "business"
	CardBusinessSingle = "business_single"
	CardCopilot        = "copilot"
	CardSevenDayPass   = "seven_day_pass"

	businessTierName = "AI Assistant"
)

// Catalog 套餐目录，variant id 和支付链接来自配置
type Catalog struct {
	billing config.BillingConfig
	cards   map[string]*Card
}

func NewCatalog(billing config.BillingConfig) *Catalog {
	c := &Catalog{billing: billing}
	c.cards = map[string]*Card{
		CardBasic:          c.basicCard(),
		CardBusiness:       c.businessCard(),
		CardBusinessSingle: c.businessSingleCard(),
		CardCopilot:        c.copilotCard(),
		CardSevenDayPass:   c.sevenDayPassCard(),
	}
	return c
}

// Card 按 key 获取卡片
func (c *Catalog) Card(key string) (*Card, bool) {
	card, ok := c.cards[key]
	return card, ok
}

// Cards 全部卡片
func (c *Catalog) Cards() []*Card {
	return []*Card{
		c.cards[CardBasic],
		c.cards[CardBusiness],
		c.cards[CardCopilot],
		c.cards[CardSevenDayPass],
	}
}

// SubscriptionTier 根据 variant id 查找套餐
func (c *Catalog) SubscriptionTier(variantID int64) (model.PremiumTier, error) {
	if variantID != 0 {
		for _, tier := range AllTiers() {
			if b, ok := c.billing.TierBilling(string(tier)); ok && b.VariantID == variantID {
				return tier, nil
			}
		}
	}
	return "", fmt.Errorf("unknown variant id: %d", variantID)
}

// VariantID 根据套餐查找 variant id
func (c *Catalog) VariantID(tier model.PremiumTier) (int64, error) {
	if IsValidTier(tier) {
		if b, ok := c.billing.TierBilling(string(tier)); ok && b.VariantID != 0 {
			return b.VariantID, nil
		}
	}
	return 0, fmt.Errorf("unknown tier: %s", tier)
}

// ManageSubscriptionURL 用户自助管理订阅的地址
func (c *Catalog) ManageSubscriptionURL() string {
	return fmt.Sprintf("https://%s.lemonsqueezy.com/billing", c.billing.StoreID)
}

func (c *Catalog) link(tier model.PremiumTier) string {
	b, _ := c.billing.TierBilling(string(tier))
	return b.PaymentLink
}

func (c *Catalog) newCard(key string, monthly, annually model.PremiumTier) *Card {
	return &Card{
		Key:   key,
		Tiers: map[Frequency]model.PremiumTier{Monthly: monthly, Annually: annually},
		Links: map[Frequency]string{Monthly: c.link(monthly), Annually: c.link(annually)},
	}
}

func (c *Catalog) basicCard() *Card {
	card := c.newCard(CardBasic, model.TierBasicMonthly, model.TierBasicAnnually)
	card.Name = "Basic"
	card.Description = "Unlimited unsubscribe credits."
	card.Features = []string{
		"Bulk email unsubscriber",
		"Unlimited unsubscribes",
		"Unlimited archives",
		"Email analytics",
	}
	card.CTA = "Try free for 7 days"
	return card
}

func (c *Catalog) businessCard() *Card {
	card := c.newCard(CardBusiness, model.TierBusinessMonthly, model.TierBusinessAnnually)
	card.Name = businessTierName
	card.Description = "Unlock full AI-powered email management"
	card.Features = []string{
		"Everything in Basic",
		"AI personal assistant",
		"Smart categories",
		"Cold email blocker",
		"Unlimited AI credits",
		"Priority support",
	}
	card.CTA = "Get Started"
	card.MostPopular = true
	return card
}

func (c *Catalog) businessSingleCard() *Card {
	card := c.newCard(CardBusinessSingle, model.TierBusinessMonthly, model.TierBusinessAnnually)
	card.Name = businessTierName
	card.Description = "Unlock full AI-powered email management"
	card.Features = []string{
		"AI personal assistant",
		"Cold email blocker",
		"Smart categories",
		"Unlimited AI credits",
		"Bulk email unsubscriber",
		"Email analytics",
		"Priority support",
	}
	card.CTA = "Get Started"
	card.MostPopular = true
	return card
}

func (c *Catalog) copilotCard() *Card {
	card := c.newCard(CardCopilot, model.TierCopilotMonthly, model.TierCopilotMonthly)
	card.Name = "Co-Pilot"
	card.Description = "Expert human assistant to manage your email"
	card.Features = []string{
		"Everything in Business",
		"Human assistant to manage your email daily",
		"30-minute 1:1 monthly call",
		"Full refund if not satisfied after first 3 days",
	}
	card.CTA = "Book a call"
	card.CTALink = c.billing.CallLink
	return card
}

func (c *Catalog) sevenDayPassCard() *Card {
	card := c.newCard(CardSevenDayPass, model.TierSevenDayPass, model.TierSevenDayPass)
	card.Name = "7-Day Pass"
	card.Description = "Full access for 7 days"
	card.Features = []string{
		"Everything in Business plan",
		"7 days of full access",
		"No recurring charges",
		"Try all premium features",
		"AI personal assistant",
		"Smart categories",
		"Cold email blocker",
	}
	card.CTA = "Get 7-Day Pass"
	card.Duration = "7 days"
	return card
}
