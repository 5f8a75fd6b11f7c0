package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FaucetRequest credits a sandbox CVU with a simulated transfer.
type FaucetRequest struct {
	Amount Amount `json:"amount"`
}

func (r FaucetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required),
	)
}

// FaucetResponse is returned bare, without the success envelope.
type FaucetResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
