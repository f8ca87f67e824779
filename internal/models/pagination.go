package models

// Meta describes one page of a listing. Page and PageSize are 1-based.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func NewMeta(page, pageSize, totalItems int) Meta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return Meta{Page: page, PageSize: pageSize, TotalItems: totalItems, TotalPages: totalPages}
}
