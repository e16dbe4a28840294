package service

import "strings"

// NormalizeCNPJ strips formatting punctuation, keeping digits only.
func NormalizeCNPJ(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCNPJ verifies length and both check digits of a normalized CNPJ.
func ValidCNPJ(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}

	allEqual := true
	for i := 1; i < len(cnpj); i++ {
		if cnpj[i] != cnpj[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	digits := make([]int, 14)
	for i, c := range cnpj {
		digits[i] = int(c - '0')
	}

	if checkDigit(digits[:12]) != digits[12] {
		return false
	}
	return checkDigit(digits[:13]) == digits[13]
}

func checkDigit(digits []int) int {
	weight := len(digits) - 7
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
