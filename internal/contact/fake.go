package contact

// Pattern identifies why a phone number was judged fake.
type Pattern int

const (
	PatternNone Pattern = iota
	// PatternLength is reported for input that is not exactly ten digits.
	PatternLength
	PatternSameDigit
	PatternAscending
	PatternDescending
	PatternRepeatingPair
	PatternRepeatingTriple
	PatternTestNumber
)

// Description is the human-readable fragment used in rejection reasons.
func (p Pattern) Description() string {
	switch p {
	case PatternLength:
		return "wrong number of digits"
	case PatternSameDigit:
		return "all digits are the same"
	case PatternAscending:
		return "digits form an ascending sequence"
	case PatternDescending:
		return "digits form a descending sequence"
	case PatternRepeatingPair:
		return "a two-digit pattern is repeated"
	case PatternRepeatingTriple:
		return "a three-digit pattern is repeated"
	case PatternTestNumber:
		return "a common test number"
	}
	return "no pattern"
}

// testNumbers are rejected outright. Most are also caught by an earlier
// pattern; the list stays so that pattern changes never let them through.
var testNumbers = map[string]struct{}{
	"1234567890": {},
	"0123456789": {},
	"9999999999": {},
	"0000000000": {},
	"5555555555": {},
	"4444444444": {},
	"1111111111": {},
	"2222222222": {},
	"3333333333": {},
	"6666666666": {},
	"7777777777": {},
	"8888888888": {},
}

// IsFakeNumber reports whether digits looks like a made-up phone number.
// Anything that is not exactly ten ASCII digits counts as fake.
func IsFakeNumber(digits string) bool {
	return FakePattern(digits) != PatternNone
}

// FakePattern returns the first pattern digits matches, in the order:
// same digit, ascending, descending, repeating pair, repeating triple,
// test number.
func FakePattern(digits string) Pattern {
	if !allDigits(digits) || len(digits) != PhoneDigits {
		return PatternLength
	}

	switch {
	case repeatsUnit(digits, 1, PhoneDigits):
		return PatternSameDigit
	case cyclicStep(digits, 1):
		return PatternAscending
	case cyclicStep(digits, 9):
		return PatternDescending
	case repeatsUnit(digits, 2, 5):
		return PatternRepeatingPair
	case repeatsUnit(digits, 3, 4):
		// 3×4 is twelve characters, so this never matches ten digits.
		// Changing the count changes which numbers are rejected.
		return PatternRepeatingTriple
	}

	if _, ok := testNumbers[digits]; ok {
		return PatternTestNumber
	}
	return PatternNone
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// cyclicStep reports whether every digit equals the previous one plus step,
// modulo 10. step 1 is ascending (…8901…), step 9 is descending (…1098…).
func cyclicStep(digits string, step int) bool {
	for i := 1; i < len(digits); i++ {
		prev := int(digits[i-1] - '0')
		cur := int(digits[i] - '0')
		if cur != (prev+step)%10 {
			return false
		}
	}
	return true
}

// repeatsUnit reports whether s is exactly its first unit characters
// repeated times times.
func repeatsUnit(s string, unit, times int) bool {
	if len(s) != unit*times {
		return false
	}
	head := s[:unit]
	for i := unit; i < len(s); i += unit {
		if s[i:i+unit] != head {
			return false
		}
	}
	return true
}
