package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used to read numbers written without a country code.
const DefaultRegion = "RU"

// Regions tried in order for numbers without a leading "+".
var supportedRegions = []string{DefaultRegion, "KZ"}

// NormalizePhone returns the E.164 form of a valid number, or "".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		num, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}
	return ""
}
