package domain

// ShippingConfig is derived per request from the product set and the order
// total. It is never persisted on the client.
type ShippingConfig struct {
	ShippingCharge          Money  `json:"shippingCharge"`
	FreeShipping            bool   `json:"freeShipping"`
	MinOrderForFreeShipping *Money `json:"minOrderForFreeShipping,omitempty"`
	Message                 string `json:"message"`
}
