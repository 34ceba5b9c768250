package catalog

import "strings"

// CategoryID 0 means uncategorized.
type Product struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PluginFormat string  `json:"plugin_format"`
	DemoHref     string  `json:"demo_href"`
	ImageSrc     string  `json:"image_src"`
	ImageAlt     string  `json:"image_alt"`
	Price        float64 `json:"price"`
	CategoryID   int     `json:"category_id"`
}

// Products is a copy of the members as of the last synchronization.
type Category struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// PATCH replaces every field.
type ProductInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PluginFormat string  `json:"plugin_format"`
	DemoHref     string  `json:"demo_href"`
	ImageSrc     string  `json:"image_src"`
	ImageAlt     string  `json:"image_alt"`
	Price        float64 `json:"price"`
	CategoryID   int     `json:"category_id"`
}

type CategoryInput struct {
	Name     string `json:"name"`
	Products []int  `json:"products"`
}

func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if in.Price < 0 {
		return invalid("price must not be negative")
	}
	if in.CategoryID < 0 {
		return invalid("category_id must not be negative")
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	return nil
}

func (in ProductInput) apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.PluginFormat = in.PluginFormat
	p.DemoHref = in.DemoHref
	p.ImageSrc = in.ImageSrc
	p.ImageAlt = in.ImageAlt
	p.Price = in.Price
	p.CategoryID = in.CategoryID
}

func productIDs(ps []Product) []int {
	ids := make([]int, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func cloneCategory(c Category) Category {
	if c.Products != nil {
		c.Products = append([]Product(nil), c.Products...)
	}
	return c
}
