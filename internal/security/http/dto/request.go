// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/kbalijepalli/dreas/internal/validation"
)

// ProtectRequest contains the parameters for sealing a payload.
type ProtectRequest struct {
	Value     string `json:"value" binding:"required"`
	PolicyTag string `json:"policy_tag" binding:"required"`
}

// Validate checks if the protect request is valid.
func (r *ProtectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.Required,
			customValidation.Base64,
		),
		validation.Field(&r.PolicyTag,
			validation.Required,
			customValidation.PolicyTag,
		),
	)
}

// RevealRequest contains the parameters for opening an envelope.
type RevealRequest struct {
	Envelope string `json:"envelope" binding:"required"`
}

// Validate checks if the reveal request is valid.
func (r *RevealRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Envelope,
			validation.Required,
			customValidation.Base64,
		),
	)
}

// InitiateEscrowRequest contains the parameters for opening a break-glass
// request.
type InitiateEscrowRequest struct {
	Envelope      string `json:"envelope" binding:"required"`
	Justification string `json:"justification" binding:"required"`
}

// Validate checks if the initiate escrow request is valid.
func (r *InitiateEscrowRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Envelope,
			validation.Required,
			customValidation.Base64,
		),
		validation.Field(&r.Justification,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 1024),
		),
	)
}
