package internal

import (
	"fmt"
	"github.com/nyaruka/phonenumbers"
	"paybridge/entity"
	"strings"
)

const ShippingPrefix = "shipping_"

// ResolveAddress reads an address from user details using the detail key prefix.
// The result is either complete or empty: an incomplete address is never sent to the provider.
func ResolveAddress(userDetails *entity.Item, prefix string) entity.Address {
	street := strings.TrimSpace(userDetails.GetDetailValue(prefix + "street"))
	zipcode := strings.TrimSpace(userDetails.GetDetailValue(prefix + "zipcode"))
	city := strings.TrimSpace(userDetails.GetDetailValue(prefix + "city"))
	country := strings.TrimSpace(userDetails.GetDetailValue(prefix + "country"))

	if (prefix != "" && street == "") || zipcode == "" || city == "" || country == "" {
		return entity.Address{}
	}

	houseNumber := strings.TrimSpace(userDetails.GetDetailValue(prefix + "housenumber"))
	suffix := strings.TrimSpace(userDetails.GetDetailValue(prefix + "housenumber_suffix"))

	return entity.Address{
		StreetAndNumber: strings.TrimSpace(fmt.Sprintf("%s %s%s", street, houseNumber, suffix)),
		PostalCode:      zipcode,
		City:            city,
		Country:         country,
	}
}

// ResolveBillingAddress adds the contact fields to the primary address and normalizes the phone number to E.164.
// Without a complete location the billing address stays empty, contact fields included.
func ResolveBillingAddress(userDetails *entity.Item) (entity.Address, error) {
	address := ResolveAddress(userDetails, "")
	if address.IsEmpty() {
		return address, nil
	}
	address.OrganizationName = strings.TrimSpace(userDetails.GetDetailValue("companyname"))
	address.GivenName = strings.TrimSpace(userDetails.GetDetailValue("firstname"))
	address.FamilyName = strings.TrimSpace(userDetails.GetDetailValue("lastname"))
	address.Email = strings.TrimSpace(userDetails.GetDetailValue("email"))

	phone := strings.TrimSpace(userDetails.GetDetailValue("phone"))
	if phone == "" {
		return address, nil
	}

	number, err := phonenumbers.Parse(phone, strings.ToUpper(address.Country))
	if err != nil {
		return address, &ValidationError{Reason: fmt.Sprintf("phone number %q: %v", phone, err)}
	}
	address.Phone = phonenumbers.Format(number, phonenumbers.E164)
	return address, nil
}
