package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is one of the five fixed expense categories. The token is what
// the categories table stores; Label is what people read.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryInternetPhone Category = "internet_phone"
	CategoryTransport     Category = "transport"
	CategoryHousehold     Category = "household"
	CategoryDailyGoods    Category = "daily_goods"
)

// Categories lists every category in display order.
var Categories = [5]Category{
	CategoryFood,
	CategoryInternetPhone,
	CategoryTransport,
	CategoryHousehold,
	CategoryDailyGoods,
}

// CategoryRecord is a row of the categories table. Only Active is mutable.
type CategoryRecord struct {
	ID        uuid.UUID
	Name      Category
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label returns the human-readable name.
func (c Category) Label() string {
	switch c {
	case CategoryFood:
		return "伙食"
	case CategoryInternetPhone:
		return "網路/電話"
	case CategoryTransport:
		return "交通"
	case CategoryHousehold:
		return "家庭日用品"
	case CategoryDailyGoods:
		return "生活用品"
	default:
		return string(c)
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts either the token or the label.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if s == string(c) || s == c.Label() {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// Label is a convenience for templates.
func (r CategoryRecord) Label() string {
	return r.Name.Label()
}
