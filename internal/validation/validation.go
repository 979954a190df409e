// Package validation holds the wire-contract formats for voter identity fields.
package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the numbering plan used to interpret mobile numbers
// written without a country code.
const DefaultRegion = "IN"

// MinimumVotingAge is the age a voter must have reached to register or vote
const MinimumVotingAge = 18

// DateLayout is the date-of-birth format accepted on the wire
const DateLayout = "2006-01-02"

var (
	mobilePattern     = regexp.MustCompile(`^[6-9]\d{9}$`)
	nationalIDPattern = regexp.MustCompile(`^\d{12}$`)
	voterCodePattern  = regexp.MustCompile(`^[A-Z]{3}[0-9]{7}$`)
)

// IsValidMobile reports whether s is a 10 digit mobile number starting 6-9
func IsValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// IsValidNationalID reports whether s is a 12 digit national ID number
func IsValidNationalID(s string) bool {
	return nationalIDPattern.MatchString(s)
}

// IsValidVoterCode reports whether s is 3 uppercase letters followed by 7 digits
func IsValidVoterCode(s string) bool {
	return voterCodePattern.MatchString(s)
}

// NormalizeMobile turns user input such as "+91 98765 43210" or
// "098765-43210" into the bare national form "9876543210". Input that is
// already in national form is returned unchanged. The result still has to
// pass IsValidMobile; normalization never relaxes the format.
func NormalizeMobile(raw string) string {
	s := strings.TrimSpace(raw)
	if IsValidMobile(s) {
		return s
	}
	num, err := phonenumbers.Parse(s, DefaultRegion)
	if err != nil {
		return s
	}
	if num.GetCountryCode() != int32(phonenumbers.GetCountryCodeForRegion(DefaultRegion)) {
		return s
	}
	return phonenumbers.GetNationalSignificantNumber(num)
}

// AgeAt returns the age in completed years of someone born on dob at time now
func AgeAt(dob, now time.Time) int {
	if now.Before(dob) {
		return 0
	}
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// IsAdultAt reports whether someone born on dob has reached the voting age at now
func IsAdultAt(dob, now time.Time) bool {
	return AgeAt(dob, now) >= MinimumVotingAge
}

// ParseDate parses a YYYY-MM-DD date of birth
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
