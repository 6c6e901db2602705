package domain

// PageState is a page together with its blocks in display order.
type PageState struct {
	Page   Page    `json:"page"`
	Blocks []Block `json:"blocks"`
}
