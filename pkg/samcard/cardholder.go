package samcard

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Cardholder is a typed view of the decoded cardholder fields.
type Cardholder struct {
	Name           string `mapstructure:"name" json:"name,omitempty"`
	Surname        string `mapstructure:"surname" json:"surname,omitempty"`
	FirstName      string `mapstructure:"firstName" json:"firstName,omitempty"`
	MiddleName     string `mapstructure:"middleName" json:"middleName,omitempty"`
	Nationality    string `mapstructure:"nationality" json:"nationality,omitempty"`
	DateOfBirth    string `mapstructure:"dob" json:"dob,omitempty"`
	Gender         string `mapstructure:"gender" json:"gender,omitempty"`
	Height         string `mapstructure:"height" json:"height,omitempty"`
	Address        string `mapstructure:"address" json:"address,omitempty"`
	DocumentNumber string `mapstructure:"documentNumber" json:"documentNumber,omitempty"`
	CardID         string `mapstructure:"cardId" json:"cardId,omitempty"`
	IssueDate      string `mapstructure:"issueDate" json:"issueDate,omitempty"`
	ExpiryDate     string `mapstructure:"expiryDate" json:"expiryDate,omitempty"`
	DocumentType   string `mapstructure:"documentType" json:"documentType,omitempty"`

	// Other holds unknown tags and the error/warning notes.
	Other map[string]string `mapstructure:",remain" json:"other,omitempty"`
}

// Cardholder decodes AdditionalFields into a Cardholder.
func (d *SecureCardData) Cardholder() (Cardholder, error) {
	var c Cardholder
	if err := mapstructure.Decode(d.AdditionalFields, &c); err != nil {
		return Cardholder{}, fmt.Errorf("decoding cardholder fields: %w", err)
	}
	return c, nil
}
