package usecase

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

// missingTotalMarker is appended to the anomaly list whenever the normalized
// total parses to zero or nothing at all.
const missingTotalMarker = "Montant total non détecté ou nul"

// complianceFloor caps the score when the document has no usable total.
const complianceFloor = 40

// defaultCompliance is assumed when the extraction carries no score.
const defaultCompliance = 85

// NormalizeAmount coerces a free-form amount string into the display form
// "1 234,56 €". A string that already carries the euro sign and a decimal
// comma is kept as-is (trimmed), which makes the function idempotent on its
// own output. Anything unparseable collapses to "0,00 €".
func NormalizeAmount(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "0,00 €"
	}
	if strings.Contains(s, "€") && strings.Contains(s, ",") {
		return s
	}

	cleaned := keepNumericRunes(s, false)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "0,00 €"
	}
	return FormatAmount(num)
}

// FormatAmount renders a float as a French-locale currency string with a
// space as thousands separator.
func FormatAmount(v float64) string {
	neg := math.Signbit(v) && v != 0
	v = math.Abs(v)

	whole := int64(v)
	cents := int64(math.Round((v - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	if cents < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(cents, 10))
	b.WriteString(" €")
	return b.String()
}

// ParseAmount extracts a numeric value from a display-formatted currency
// string. Multiple separators are treated as thousands markers except the
// last one. Unparseable input yields 0.
func ParseAmount(val string) float64 {
	if val == "" {
		return 0
	}
	clean := keepNumericRunes(val, true)
	clean = strings.ReplaceAll(clean, ",", ".")

	if parts := strings.Split(clean, "."); len(parts) > 2 {
		clean = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}
	num, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return num
}

func keepNumericRunes(s string, allowMinus bool) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == ',' || r == '.':
			return r
		case allowMinus && r == '-':
			return r
		default:
			return -1
		}
	}, s)
}

// FormatFrDate renders a time as the JJ/MM/AAAA display string the summaries
// carry.
func FormatFrDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// ParseFrDate reads a JJ/MM/AAAA string back into a time. The boolean is
// false when the string does not split into three numeric parts.
func ParseFrDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// NormalizeSummary turns a raw extraction into the summary the views consume,
// applying the scoring corrections on the way:
//
//   - amounts are reformatted and a zero/unparseable total caps compliance at
//     40 and records the missing-total anomaly;
//   - a perfect score with a non-empty anomaly list is demoted to 95;
//   - a perfect score otherwise clears the anomaly list.
func NormalizeSummary(ex domain.Extraction, now time.Time) domain.InvoiceSummary {
	comp := defaultCompliance
	if ex.Compliance != nil {
		comp = int(math.Round(*ex.Compliance))
	}
	missing := append([]string(nil), ex.MissingElements...)

	totalClean := NormalizeAmount(ex.TotalTTC)
	taxClean := NormalizeAmount(ex.Tax)

	if ParseAmount(totalClean) == 0 {
		comp = min(comp, complianceFloor)
		if !containsString(missing, missingTotalMarker) {
			missing = append(missing, missingTotalMarker)
		}
	}
	if comp == 100 && len(missing) > 0 {
		comp = 95
	} else if comp == 100 {
		missing = nil
	}

	vendor := ex.Vendor
	if vendor == "" {
		vendor = "Inconnu"
	}
	date := ex.Date
	if date == "" {
		date = FormatFrDate(now)
	}
	category := ex.Category
	if category == "" {
		category = "Autres"
	}

	return domain.InvoiceSummary{
		Vendor:          vendor,
		Date:            date,
		TotalTTC:        totalClean,
		Tax:             taxClean,
		SIRET:           ex.SIRET,
		IBAN:            ex.IBAN,
		Category:        category,
		Compliance:      comp,
		MissingElements: missing,
		PaymentStatus:   domain.PaymentToValidate,
		FraudCheck: &domain.FraudCheck{
			SiretValid:  ex.SIRET != "",
			IbanTrusted: ex.IBAN != "",
			IsDuplicate: false,
			Score:       comp,
		},
	}
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
