package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ClientID, validation.Required),
		validation.Field(&r.ClientSecret, validation.Required),
	)
}

type TokenData struct {
	Token string `json:"token"`
}

func (d TokenData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Token, validation.Required),
	)
}
