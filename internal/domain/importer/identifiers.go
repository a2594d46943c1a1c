package importer

import (
	"regexp"
	"strings"
)

var (
	reCodiceFiscale = regexp.MustCompile(`^[A-Z]{6}[0-9LMNPQRSTUV]{2}[ABCDEHLMPRST][0-9LMNPQRSTUV]{2}[A-Z][0-9LMNPQRSTUV]{3}[A-Z]$`)
	rePOD           = regexp.MustCompile(`^IT[0-9]{3}E[0-9A-Z]{8,9}$`)
	rePDR           = regexp.MustCompile(`^[0-9]{14}$`)
	reCAP           = regexp.MustCompile(`^[0-9]{5}$`)
	reProvincia     = regexp.MustCompile(`^[A-Z]{2}$`)
	reDigits        = regexp.MustCompile(`^[0-9]+$`)
)

// values of characters in odd positions (1-based) for the CF check character
var cfOddValues = [36]int{
	// 0-9
	1, 0, 5, 7, 9, 13, 15, 17, 19, 21,
	// A-Z
	1, 0, 5, 7, 9, 13, 15, 17, 19, 21, 2, 4, 18, 20, 11, 3, 6, 8, 12, 14, 16, 10, 22, 25, 24, 23,
}

func cfIndex(c byte) int {
	if c >= '0' && c <= '9' {
		return int(c - '0')
	}
	return int(c-'A') + 10
}

func cfEvenValue(c byte) int {
	if c >= '0' && c <= '9' {
		return int(c - '0')
	}
	return int(c - 'A')
}

// ValidCodiceFiscale accepts a 16-character personal code (omocodia
// included) with a correct check character, or an 11-digit company code.
func ValidCodiceFiscale(cf string) bool {
	if len(cf) == 11 {
		return ValidPartitaIVA(cf)
	}
	if !reCodiceFiscale.MatchString(cf) {
		return false
	}

	sum := 0
	for i := 0; i < 15; i++ {
		if i%2 == 0 {
			sum += cfOddValues[cfIndex(cf[i])]
		} else {
			sum += cfEvenValue(cf[i])
		}
	}
	return cf[15] == byte('A'+sum%26)
}

// IsPersonalCodiceFiscale tells a 16-character code from a company one.
func IsPersonalCodiceFiscale(cf string) bool {
	return len(cf) == 16
}

// ValidPartitaIVA checks the 11 digits and the Luhn-style check digit.
func ValidPartitaIVA(piva string) bool {
	if len(piva) != 11 || !reDigits.MatchString(piva) {
		return false
	}

	sum := 0
	for i := 0; i < 10; i++ {
		d := int(piva[i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return check == int(piva[10]-'0')
}

func ValidPOD(pod string) bool {
	return rePOD.MatchString(pod)
}

func ValidPDR(pdr string) bool {
	return rePDR.MatchString(pdr)
}

func ValidCAP(code string) bool {
	return reCAP.MatchString(code)
}

func ValidProvincia(p string) bool {
	return reProvincia.MatchString(strings.ToUpper(p))
}
