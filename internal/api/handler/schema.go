package handler

// saleItemRequest is one purchased product line in a sale posting.
type saleItemRequest struct {
	ProductOfferID int `json:"product_offer_id" validate:"required"`
	Quantity       int `json:"quantity"         validate:"required,gt=0"`
}

// postSaleRequest is the payload for POST /:version/sales.
type postSaleRequest struct {
	MemberID int               `json:"member_id" validate:"required"`
	Items    []saleItemRequest `json:"items"     validate:"required,min=1,dive"`
}

// putAssociationRequest is the payload for POST /nfc/:username.
type putAssociationRequest struct {
	CardUID string `json:"card_uid" validate:"required"`
}
