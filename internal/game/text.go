package game

import (
	"crypto/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	CodeLength       = 6
	MaxNameLength    = 20
	MaxGameNameLen   = 80
	MaxContentLength = 500
	MaxEmojiBytes    = 16
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewCode returns a random join code drawn from an alphabet without
// look-alike characters.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode checks shape only; it accepts codes typed in any case.
func ValidCode(code string) bool {
	normalized := NormalizeCode(code)
	if len(normalized) != CodeLength {
		return false
	}
	for _, r := range normalized {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func ValidateName(name string) (string, error) {
	return validateLine("name", name, MaxNameLength)
}

func ValidateGameName(name string) (string, error) {
	return validateLine("game name", name, MaxGameNameLen)
}

func validateLine(label, text string, maxLen int) (string, error) {
	trimmed := NormalizeText(text)
	if trimmed == "" {
		return "", Validation("%s is required", label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", Validation("%s must be %d characters or fewer", label, maxLen)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", Validation("%s contains unsupported characters", label)
		}
	}
	return trimmed, nil
}

// ValidateContent trims the entry but keeps its inner line breaks.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", Validation("content is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return "", Validation("content must be %d characters or fewer", MaxContentLength)
	}
	return trimmed, nil
}

func ValidateEmoji(emoji string) (string, error) {
	trimmed := strings.TrimSpace(emoji)
	if trimmed == "" {
		return "", Validation("emoji is required")
	}
	if len(trimmed) > MaxEmojiBytes || strings.ContainsAny(trimmed, " \t\n") {
		return "", Validation("emoji must be a single reaction")
	}
	return trimmed, nil
}
