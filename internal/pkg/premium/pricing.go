package premium

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

// 定价页实验分组
const (
	VariantControl       = "control"
	VariantBusinessOnly  = "business-only"
	VariantBasicBusiness = "basic-business"
)

type Layout string

const (
	LayoutOneColumn   Layout = "one_column"
	LayoutTwoColumn   Layout = "two_column"
	LayoutThreeColumn Layout = "three_column"
)

// SelectLayout 根据实验分组和用户当前套餐选择布局及卡片
func SelectLayout(variant string, tier model.PremiumTier) (Layout, []string) {
	basic := IsBasicTier(tier)

	if variant == VariantBusinessOnly && !basic {
		return LayoutOneColumn, []string{CardBusinessSingle}
	}
	if variant == VariantBasicBusiness || basic {
		return LayoutTwoColumn, []string{CardSevenDayPass, CardBusinessSingle}
	}
	return LayoutThreeColumn, []string{CardSevenDayPass, CardBusinessSingle}
}

// Viewer 访问定价页的登录用户
type Viewer struct {
	UserID int64
	Email  string
	Name   string
}

type PageInput struct {
	Variant       string
	Frequency     Frequency
	Viewer        *Viewer
	Tier          model.PremiumTier
	Expired       bool
	AffiliateCode string
}

type CardView struct {
	Key                    string            `json:"key"`
	Name                   string            `json:"name"`
	Description            string            `json:"description"`
	Features               []string          `json:"features"`
	Tier                   model.PremiumTier `json:"tier"`
	Price                  float64           `json:"price"`
	PriceSuffix            string            `json:"price_suffix"`
	EquivalentMonthlyPrice float64           `json:"equivalent_monthly_price"`
	AdditionalEmailPrice   float64           `json:"additional_email_price"`
	Discount               float64           `json:"discount"`
	MostPopular            bool              `json:"most_popular"`
	Duration               string            `json:"duration,omitempty"`
	IsCurrentPlan          bool              `json:"is_current_plan"`
	Href                   string            `json:"href"`
	CTA                    string            `json:"cta"`
	SwitchPlan             bool              `json:"switch_plan"`
}

type Page struct {
	Layout                Layout     `json:"layout"`
	Frequency             Frequency  `json:"frequency"`
	Cards                 []CardView `json:"cards"`
	ManageSubscriptionURL string     `json:"manage_subscription_url,omitempty"`
}

// BuildPage 生成定价页数据
func (c *Catalog) BuildPage(in PageInput) *Page {
	freq := in.Frequency
	if freq == "" {
		freq = Annually
	}

	layout, keys := SelectLayout(in.Variant, in.Tier)
	page := &Page{
		Layout:    layout,
		Frequency: freq,
		Cards:     make([]CardView, 0, len(keys)),
	}
	if in.Tier != "" && !in.Expired {
		page.ManageSubscriptionURL = c.ManageSubscriptionURL()
	}

	for _, key := range keys {
		card := c.cards[key]
		page.Cards = append(page.Cards, c.cardView(card, freq, in))
	}

	return page
}

func (c *Catalog) cardView(card *Card, freq Frequency, in PageInput) CardView {
	tier := card.Tier(freq)
	isCurrent := !in.Expired && in.Tier != "" && tier == in.Tier

	v := CardView{
		Key:                    card.Key,
		Name:                   card.Name,
		Description:            card.Description,
		Features:               card.Features,
		Tier:                   tier,
		Price:                  card.DisplayedPrice(freq),
		PriceSuffix:            PriceSuffix(tier),
		EquivalentMonthlyPrice: card.EquivalentMonthlyPrice(freq),
		AdditionalEmailPrice:   card.AdditionalPrice(freq),
		Discount:               card.DiscountFor(freq),
		MostPopular:            card.MostPopular,
		Duration:               card.Duration,
		IsCurrentPlan:          isCurrent,
		Href:                   cardHref(card, freq, in, isCurrent),
	}

	switch {
	case isCurrent:
		v.CTA = "Current plan"
	case in.Tier != "":
		v.CTA = "Switch to this plan"
	default:
		v.CTA = card.CTA
	}

	// 已有套餐的用户通过切换接口换套餐，不再走收银台
	if in.Tier != "" {
		v.Href = "#"
		v.SwitchPlan = !isCurrent
	}

	return v
}

func cardHref(card *Card, freq Frequency, in PageInput, isCurrent bool) string {
	if in.Viewer == nil {
		return "/login?next=/premium"
	}
	if isCurrent {
		return "#"
	}
	if card.CTALink != "" {
		return card.CTALink
	}
	return AffiliateURL(CheckoutURL(card.Links[freq], *in.Viewer), in.AffiliateCode)
}

// CheckoutURL 在支付链接上附带用户信息，回调时据此关联用户
func CheckoutURL(link string, v Viewer) string {
	return fmt.Sprintf("%s?checkout[custom][user_id]=%d&checkout[email]=%s&checkout[name]=%s",
		link, v.UserID, url.QueryEscape(v.Email), url.QueryEscape(v.Name))
}

// AffiliateURL 附加推广码
func AffiliateURL(link, code string) string {
	if code == "" {
		return link
	}
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return link + sep + "aff_ref=" + url.QueryEscape(code)
}
