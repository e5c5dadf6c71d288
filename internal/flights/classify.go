package flights

import (
	"regexp"
	"strings"
)

// NoIdentifier is used when a record carries nothing to name it by
const NoIdentifier = "N/A"

// UnknownAirline is the airline code of identifiers that match no pattern
const UnknownAirline = "Unknown"

var (
	allDigits       = regexp.MustCompile(`^\d+$`)
	alphaPrefix     = regexp.MustCompile(`^[A-Z]{2,3}`)
	letterDigitCode = regexp.MustCompile(`^[A-Z][0-9]`)

	cargoPrefixes = []string{"UPS", "FDX", "GTI", "AMZ", "QFA", "CKK"}
)

// ResolveIdentifier picks the display identifier: flight number, then
// callsign (either only when not purely digits), then registration, then "N/A".
func ResolveIdentifier(flightNumber, callsign, registration string) string {
	if flightNumber != "" && !allDigits.MatchString(flightNumber) {
		return flightNumber
	}
	if callsign != "" && !allDigits.MatchString(callsign) {
		return callsign
	}
	if registration != "" {
		return registration
	}
	return NoIdentifier
}

// Classify derives the category and airline code from an identifier alone
func Classify(identifier string) (Category, string) {
	if identifier == "" || identifier == NoIdentifier {
		return CategoryCommercial, UnknownAirline
	}

	if strings.HasPrefix(identifier, "N") && len(identifier) > 1 {
		return CategoryPrivate, "N"
	}

	for _, p := range cargoPrefixes {
		if strings.HasPrefix(identifier, p) {
			return CategoryCargo, alphaPrefix.FindString(identifier)
		}
	}

	if code := alphaPrefix.FindString(identifier); code != "" {
		return CategoryCommercial, code
	}
	if code := letterDigitCode.FindString(identifier); code != "" {
		return CategoryCommercial, code
	}
	return CategoryCommercial, UnknownAirline
}
