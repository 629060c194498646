// Package validation содержит функции валидации входных данных.
package validation

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mmeshcher/vales-contigo/internal/catalog"
)

// IsValidPIN проверяет, что PIN содержит хотя бы один непробельный символ.
func IsValidPIN(pin string) bool {
	return strings.TrimSpace(pin) != ""
}

// ParseCouponID разбирает десятичный идентификатор вале и проверяет, что он есть в каталоге.
func ParseCouponID(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}

	for _, ch := range raw {
		if !unicode.IsDigit(ch) {
			return 0, false
		}
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	if !catalog.Contains(id) {
		return 0, false
	}

	return id, true
}
