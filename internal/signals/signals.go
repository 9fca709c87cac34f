// Package signals derives content-type, credibility, discount and brand
// signals from raw post text. Every function here is pure and deterministic:
// the same input always produces the same output.
package signals

import (
	"regexp"
	"strings"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Keyword sets checked by DetectContentType, in priority order.
var (
	discountKeywords         = []string{"折扣", "优惠", "促销"}
	internalPurchaseKeywords = []string{"内购", "员工"}
	flashSaleKeywords        = []string{"限时", "秒杀", "抢购"}
)

// discountPattern pairs one textual form with exactly one discount type.
type discountPattern struct {
	re  *regexp.Regexp
	typ models.DiscountType
}

// Ordered pattern list tried by ExtractDiscount; first match wins. The
// pattern-to-type mapping is injective and total.
var discountPatterns = []discountPattern{
	{regexp.MustCompile(`(\d+)折`), models.DiscountPercentage},
	{regexp.MustCompile(`(\d+)%off`), models.DiscountPercentageOff},
	{regexp.MustCompile(`立减(\d+)`), models.DiscountInstant},
	{regexp.MustCompile(`满(\d+)减(\d+)`), models.DiscountThreshold},
	{regexp.MustCompile(`优惠(\d+)`), models.DiscountOther},
}

// commonBrands is the fixed vocabulary matched by ExtractBrand, checked in
// order.
var commonBrands = []string{
	"Apple", "iPhone", "iPad", "Mac",
	"Samsung", "华为", "小米", "OPPO", "vivo",
	"Nike", "Adidas", "优衣库", "ZARA",
	"雅诗兰黛", "兰蔻", "SK-II", "资生堂",
	"戴森", "飞利浦", "索尼", "佳能",
}

// DetectContentType categorizes post text by keyword membership. The three
// keyword sets are checked in fixed priority order: discount beats
// internal_purchase beats flash_sale; no match falls through to product.
func DetectContentType(title, content string) models.ContentType {
	text := strings.ToLower(title) + " " + strings.ToLower(content)

	if containsAny(text, discountKeywords) {
		return models.ContentDiscount
	}
	if containsAny(text, internalPurchaseKeywords) {
		return models.ContentInternalPurchase
	}
	if containsAny(text, flashSaleKeywords) {
		return models.ContentFlashSale
	}
	return models.ContentProduct
}

// CalculateCredibility scores a post's trustworthiness from engagement and
// author signals. Additive heuristic starting at a base of 50, clamped to
// [0,100]; not a trained model.
func CalculateCredibility(post models.Post) int {
	score := 50

	if post.Stats.Likes > 1000 {
		score += 10
	}
	if post.Stats.Comments > 100 {
		score += 10
	}
	if post.Stats.Collects > 50 {
		score += 10
	}

	if post.Author.Type == "official" {
		score += 15
	}
	if post.Author.FansCount > 10000 {
		score += 10
	}

	if len([]rune(post.Title)) > 10 {
		score += 5
	}
	if len([]rune(post.Content)) > 50 {
		score += 5
	}
	if len(post.Images) > 3 {
		score += 5
	}

	return clamp(score, 0, 100)
}

// ExtractDiscount finds the first discount expression in the lower-cased
// concatenation of title and content. Returns nil when no pattern matches.
func ExtractDiscount(title, content string) *models.DiscountInfo {
	text := strings.ToLower(title + " " + content)

	for _, p := range discountPatterns {
		if match := p.re.FindString(text); match != "" {
			return &models.DiscountInfo{
				Type:       p.typ,
				RawValue:   match,
				Confidence: 0.8,
			}
		}
	}
	return nil
}

// ExtractBrand matches post text against the brand vocabulary. Returns nil
// when no brand is mentioned.
func ExtractBrand(title, content string) *models.BrandInfo {
	text := title + " " + content

	for _, brand := range commonBrands {
		if strings.Contains(text, brand) {
			return &models.BrandInfo{
				Name:       brand,
				Confidence: 0.9,
			}
		}
	}
	return nil
}

// Enrich fills the derived fields of a raw post in place: content type,
// credibility, discount and brand descriptors. A post typed as discount
// always carries a discount descriptor: when no pattern matched (a discount
// keyword with no figure attached), the keyword itself is recorded at
// reduced confidence so the detector and extractor stay consistent.
func Enrich(post *models.Post) {
	post.ContentType = DetectContentType(post.Title, post.Content)
	post.Credibility = CalculateCredibility(*post)
	post.DiscountInfo = ExtractDiscount(post.Title, post.Content)
	post.BrandInfo = ExtractBrand(post.Title, post.Content)

	if post.ContentType == models.ContentDiscount && post.DiscountInfo == nil {
		text := strings.ToLower(post.Title) + " " + strings.ToLower(post.Content)
		post.DiscountInfo = &models.DiscountInfo{
			Type:       models.DiscountOther,
			RawValue:   firstKeyword(text, discountKeywords),
			Confidence: 0.5,
		}
	}
}

func firstKeyword(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
