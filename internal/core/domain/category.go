package domain

// CategoryID identifies one of the five fixed knowledge categories.
type CategoryID string

// The fixed category set. Categories are reference data.
const (
	CategoryProductInquiry CategoryID = "product_inquiry"
	CategoryTechSupport    CategoryID = "tech_support"
	CategoryPricing        CategoryID = "pricing"
	CategoryTutorial       CategoryID = "tutorial"
	CategoryAfterSales     CategoryID = "after_sales"
)

// AllCategories returns the category IDs in their canonical order.
// The order is the final tie-break during classification.
func AllCategories() []CategoryID {
	return []CategoryID{
		CategoryProductInquiry,
		CategoryTechSupport,
		CategoryPricing,
		CategoryTutorial,
		CategoryAfterSales,
	}
}

// IsValid returns true if the category is one of the fixed set.
func (c CategoryID) IsValid() bool {
	switch c {
	case CategoryProductInquiry, CategoryTechSupport, CategoryPricing,
		CategoryTutorial, CategoryAfterSales:
		return true
	default:
		return false
	}
}

// String returns the category identifier.
func (c CategoryID) String() string {
	return string(c)
}

// DisplayName returns the Chinese display name.
func (c CategoryID) DisplayName() string {
	switch c {
	case CategoryProductInquiry:
		return "产品咨询"
	case CategoryTechSupport:
		return "技术支持"
	case CategoryPricing:
		return "价格费用"
	case CategoryTutorial:
		return "使用教程"
	case CategoryAfterSales:
		return "售后问题"
	default:
		return unknownDescription
	}
}

// Description returns a short explanation of what belongs in the category.
func (c CategoryID) Description() string {
	switch c {
	case CategoryProductInquiry:
		return "产品功能、特性、规格相关问题"
	case CategoryTechSupport:
		return "技术问题、故障排除、配置问题"
	case CategoryPricing:
		return "价格、费用、优惠、付款相关问题"
	case CategoryTutorial:
		return "操作指南、使用方法、教程相关"
	case CategoryAfterSales:
		return "退换货、维修、投诉、服务相关"
	default:
		return unknownDescription
	}
}

// Color returns the display colour as a hex string.
func (c CategoryID) Color() string {
	switch c {
	case CategoryProductInquiry:
		return "#409EFF"
	case CategoryTechSupport:
		return "#E6A23C"
	case CategoryPricing:
		return "#67C23A"
	case CategoryTutorial:
		return "#909399"
	case CategoryAfterSales:
		return "#F56C6C"
	default:
		return "#909399"
	}
}

// DefaultWeight returns the classification multiplier used when no
// weight is configured.
func (c CategoryID) DefaultWeight() float64 {
	switch c {
	case CategoryTechSupport:
		return 1.2
	case CategoryPricing:
		return 1.1
	default:
		return 1.0
	}
}

// Category is the presentable form of a CategoryID.
type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Weight      float64    `json:"weight"`
}

// Categories returns all categories with their configured weights.
// A nil weights map yields the defaults.
func Categories(weights map[CategoryID]float64) []Category {
	ids := AllCategories()
	out := make([]Category, 0, len(ids))
	for _, id := range ids {
		w, ok := weights[id]
		if !ok {
			w = id.DefaultWeight()
		}
		out = append(out, Category{
			ID:          id,
			Name:        id.DisplayName(),
			Description: id.Description(),
			Color:       id.Color(),
			Weight:      w,
		})
	}
	return out
}
