package certs

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mcuadros/go-defaults"
)

var validate = validator.New()

// RootParams configure a self-signed root CA certificate.
type RootParams struct {
	Organization string `validate:"required"`
	CommonName   string `validate:"required"`

	Country  string
	Province string
	Locality string

	// The root lives offline, so its validity window is long.
	ValidityYears int `default:"20" validate:"min=1,max=50"`

	// PathLen must leave room for at least one intermediate tier.
	PathLen int `default:"1" validate:"min=1,max=4"`
}

// IntermediateParams configure a signing-only intermediate CA certificate.
// Key usage is not configurable: intermediates are signing instruments and
// are never presented as a server or client identity.
type IntermediateParams struct {
	Organization       string `validate:"required"`
	OrganizationalUnit string
	CommonName         string `validate:"required"`

	ValidityYears int `default:"3" validate:"min=1,max=10"`

	// PathLen 0 means this CA cannot issue further sub-CAs.
	PathLen int `validate:"min=0,max=1"`
}

// ServerParams configure an end-entity certificate.
type ServerParams struct {
	CommonName         string `validate:"required"`
	Organization       string
	OrganizationalUnit string

	// SubjectAltNames may hold DNS names and IP addresses. The common name is
	// inserted as the first entry if it is not already present.
	SubjectAltNames []string

	ValidityDays int `default:"90" validate:"min=1,max=825"`
}

func applyDefaults(p interface{}) error {
	defaults.SetDefaults(p)
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid certificate parameters: %w", err)
	}
	return nil
}
