package dedup

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/unicode/norm"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "KR"

// Korean corporate markers, matched after NFKC so "㈜" is already "(주)".
var koreanMarkers = []string{"(주)", "(유)", "(사)", "주식회사", "유한회사", "유한책임회사", "사단법인"}

// Latin corporate tokens, matched as whole words.
var latinMarkers = map[string]bool{
	"inc": true, "incorporated": true, "corp": true, "corporation": true,
	"co": true, "company": true, "ltd": true, "limited": true, "llc": true,
}

// CompanyKey folds a company name to a comparison key: width/compat forms unified,
// lower case, corporate markers and all punctuation and whitespace removed.
func CompanyKey(name string) string {
	s := strings.ToLower(norm.NFKC.String(name))
	for _, m := range koreanMarkers {
		s = strings.ReplaceAll(s, m, " ")
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !latinMarkers[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		// Name made only of markers: keep it rather than collide on "".
		return strings.Join(words, "")
	}
	return strings.Join(kept, "")
}

// PhoneKey returns the E.164 form of phone, or its bare digits when it cannot be parsed as valid.
func PhoneKey(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err == nil && phonenumbers.IsValidNumber(parsed) {
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}

	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, norm.NFKC.String(phone))
}

// Normalizer binds PhoneKey to a configured region.
type Normalizer struct {
	Region string
}

func NewNormalizer(region string) Normalizer {
	if region == "" {
		region = DefaultRegion
	}
	return Normalizer{Region: strings.ToUpper(region)}
}

// Keys returns the company and phone keys for a lead.
func (n Normalizer) Keys(companyName, phone string) (companyKey, phoneKey string) {
	return CompanyKey(companyName), PhoneKey(phone, n.Region)
}
