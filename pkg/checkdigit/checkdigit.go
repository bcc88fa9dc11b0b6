// Package checkdigit validates Brazilian identifiers protected by weighted
// modulo 11 check digits: the 14-digit CNPJ registry number and the 44-digit
// NF-e fiscal document access key, which embeds the issuer's CNPJ.
//
// The validators expect input already guarded by IsDigits. They return false
// instead of panicking when that contract is broken.
package checkdigit

const (
	// RegistryLen is the length of a CNPJ registry number.
	RegistryLen = 14
	// FiscalKeyLen is the length of an NF-e access key.
	FiscalKeyLen = 44
)

// Registry number weights. The trailing zeros are placeholders for the check
// digits themselves.
var (
	registryWeights1 = [RegistryLen]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2, 0, 0}
	registryWeights2 = [RegistryLen]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2, 0}
)

// fiscalKeyWeights cycles 2..9 from the right over the first 43 digits.
// The last weight is 0 so the check digit does not count.
var fiscalKeyWeights = func() [FiscalKeyLen]int {
	var w [FiscalKeyLen]int
	for i := 0; i < FiscalKeyLen-1; i++ {
		w[i] = 2 + (FiscalKeyLen-2-i)%8
	}
	return w
}()

// embedded CNPJ position inside an access key: digits 7 through 20.
const (
	keyRegistryStart = 6
	keyRegistryEnd   = keyRegistryStart + RegistryLen
)

// IsDigits reports whether s is exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidRegistryNumber validates the two check digits of a 14-digit CNPJ.
func ValidRegistryNumber(digits string) bool {
	if !IsDigits(digits, RegistryLen) {
		return false
	}
	d1 := mod11Digit(digits, registryWeights1[:])
	d2 := mod11Digit(digits, registryWeights2[:])
	return d1 == int(digits[12]-'0') && d2 == int(digits[13]-'0')
}

// ValidFiscalKey validates the check digit of a 44-digit NF-e access key and
// the CNPJ embedded in it.
func ValidFiscalKey(digits string) bool {
	if !IsDigits(digits, FiscalKeyLen) {
		return false
	}
	d := mod11Digit(digits, fiscalKeyWeights[:])
	if d != int(digits[FiscalKeyLen-1]-'0') {
		return false
	}
	return ValidRegistryNumber(digits[keyRegistryStart:keyRegistryEnd])
}

// mod11Digit computes sum(digit*weight) mod 11 and maps the remainder to a
// check digit: 0 or 1 give 0, anything else gives 11 - remainder.
func mod11Digit(digits string, weights []int) int {
	var sum int
	for i := 0; i < len(weights); i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}
