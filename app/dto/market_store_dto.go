package dto

// CreateMarketStoreRequest adds a merchant to the roster
type CreateMarketStoreRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// UpdateMarketStoreRequest edits a roster entry
type UpdateMarketStoreRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active,omitempty" validate:"omitempty"`
}

// VerifyStoreResponse reports a membership check
type VerifyStoreResponse struct {
	Name          string `json:"name"`
	IsMarketStore bool   `json:"is_market_store"`
}
