package requests

// ParseAddressRequest parses a single address.
type ParseAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// BatchParseRequest starts a background batch parse job.
type BatchParseRequest struct {
	Addresses []string `json:"addresses" binding:"required,min=1,max=20000"`
}
