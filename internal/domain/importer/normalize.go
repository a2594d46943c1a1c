package importer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/okaokay/gestionale-energia/internal/textutil"
	"github.com/okaokay/gestionale-energia/internal/timezone"
)

var (
	ErrInvalidNumber = errors.New("invalid number")

	codeReplacer = strings.NewReplacer(" ", "", ".", "", "-", "", "/", "", "_", "")
	reNonNumeric = regexp.MustCompile(`[^0-9,.\-]`)
	rePhoneJunk  = regexp.MustCompile(`[^0-9+]`)
)

// NormalizeCode uppercases identifiers and drops separators.
func NormalizeCode(s string) string {
	return strings.ToUpper(codeReplacer.Replace(strings.TrimSpace(s)))
}

// NormalizePartitaIVA also strips the IT country prefix and restores
// leading zeros lost by spreadsheets.
func NormalizePartitaIVA(s string) string {
	s = strings.TrimPrefix(NormalizeCode(s), "IT")
	return padDigits(s, 11, 8)
}

// NormalizeCodiceFiscale keeps 16-character codes as they are and treats
// numeric codes like a partita IVA.
func NormalizeCodiceFiscale(s string) string {
	s = NormalizeCode(s)
	if reDigits.MatchString(s) {
		return padDigits(s, 11, 8)
	}
	return s
}

func NormalizePDR(s string) string {
	return padDigits(NormalizeCode(s), 14, 12)
}

func NormalizeCAP(s string) string {
	return padDigits(NormalizeCode(s), 5, 3)
}

func padDigits(s string, width, minLen int) string {
	if len(s) >= minLen && len(s) < width && reDigits.MatchString(s) {
		return strings.Repeat("0", width-len(s)) + s
	}
	return s
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName collapses whitespace; casing is left as typed.
func NormalizeName(s string) string {
	return textutil.CollapseSpaces(s)
}

func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return rePhoneJunk.ReplaceAllString(s, "")
}

func NormalizeProvincia(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseNumber reads Italian formatted numbers ("1.234,56", "3,5") as well
// as plain ones ("3.5"). A single dot followed by exactly three digits is
// a thousands separator. Units and currency symbols are ignored.
func ParseNumber(s string) (decimal.Decimal, error) {
	s = reNonNumeric.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" || s == "-" {
		return decimal.Decimal{}, ErrInvalidNumber
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Decimal{}, ErrInvalidNumber
		}
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		intPart := strings.TrimPrefix(s[:lastDot], "-")
		if strings.Count(s, ".") > 1 || (len(s)-lastDot-1 == 3 && intPart != "0" && intPart != "") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidNumber
	}
	return d, nil
}

// ParsePlainNumber reads a dot decimal number as written by spreadsheet
// software. Text that is not a plain number goes through ParseNumber.
func ParsePlainNumber(s string) (decimal.Decimal, error) {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return d, nil
	}
	return ParseNumber(s)
}

// ParseDate accepts the common Italian layouts and Excel serial dates
// (1927 onwards, as read from raw XLSX cells).
func ParseDate(s string) (time.Time, error) {
	t, err := timezone.ParseDate(s)
	if err == nil {
		return t, nil
	}

	serial, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil || serial < 10000 || serial >= 100000 {
		return time.Time{}, err
	}
	et, eerr := excelize.ExcelDateToTime(serial, false)
	if eerr != nil {
		return time.Time{}, err
	}
	loc := timezone.Location(timezone.DefaultTimezone)
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, loc), nil
}
