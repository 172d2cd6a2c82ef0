package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"korean prefix marker", "(주)에이비씨", "에이비씨"},
		{"enclosed marker", "㈜에이비씨", "에이비씨"},
		{"korean suffix marker", "에이비씨 주식회사", "에이비씨"},
		{"latin co ltd", "ABC Co., Ltd.", "abc"},
		{"latin inc", "ABC Inc", "abc"},
		{"fullwidth letters", "ＡＢＣ", "abc"},
		{"inner whitespace and punctuation", "A.B-C  Tax", "abctax"},
		{"markers only", "Company Ltd", "companyltd"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompanyKey(tt.input))
		})
	}
}

func TestCompanyKey_MatchesVariants(t *testing.T) {
	assert.Equal(t, CompanyKey("(주) 한빛세무"), CompanyKey("한빛세무 주식회사"))
	assert.Equal(t, CompanyKey("Hanbit Tax Co., Ltd"), CompanyKey("HANBIT TAX"))
	assert.NotEqual(t, CompanyKey("한빛세무"), CompanyKey("한빛회계"))
}

func TestPhoneKey(t *testing.T) {
	tests := []struct {
		name   string
		phone  string
		region string
		want   string
	}{
		{"korean mobile with dashes", "010-1234-5678", "KR", "+821012345678"},
		{"korean mobile international", "+82 10 1234 5678", "KR", "+821012345678"},
		{"default region", "010 1234 5678", "", "+821012345678"},
		{"unparsable falls back to digits", "ext 12", "KR", "12"},
		{"empty", "  ", "KR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneKey(tt.phone, tt.region))
		})
	}
}

func TestNormalizer_Keys(t *testing.T) {
	n := NewNormalizer("kr")
	assert.Equal(t, "KR", n.Region)

	company, phone := n.Keys("(주)에이비씨", "010-1234-5678")
	assert.Equal(t, "에이비씨", company)
	assert.Equal(t, "+821012345678", phone)
}
