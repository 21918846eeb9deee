package security

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageLength     = 4096 // Telegram message limit
	MaxDisplayNameLength = 128
)

// ValidateBaseURL ensures the public webhook base URL is well formed.
// Telegram only delivers webhooks over HTTPS.
func ValidateBaseURL(rawURL string) error {
	if len(rawURL) > 2048 {
		return fmt.Errorf("URL too long")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("URL host is empty")
	}

	return nil
}

// ValidateFilePath ensures file path is safe
func ValidateFilePath(path string) error {
	if len(path) > 255 {
		return fmt.Errorf("file path too long")
	}

	// Prevent path traversal
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal detected")
	}

	// Clean the path
	cleanPath := filepath.Clean(path)
	if cleanPath != path {
		return fmt.Errorf("path contains dangerous elements")
	}

	return nil
}

// SanitizeDisplayName strips control characters from a member's handle or
// name before it is stored or echoed back into the chat.
func SanitizeDisplayName(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.ReplaceAll(input, "\n", " ")
	input = strings.ReplaceAll(input, "\r", " ")
	input = strings.ReplaceAll(input, "\t", " ")
	input = strings.TrimSpace(input)

	for len(input) > MaxDisplayNameLength {
		_, size := utf8.DecodeLastRuneInString(input)
		input = input[:len(input)-size]
	}

	return input
}

// TruncateMessage caps outgoing text at the Telegram message limit without
// splitting a multi-byte rune.
func TruncateMessage(text string) string {
	if len(text) <= MaxMessageLength {
		return text
	}

	text = text[:MaxMessageLength]
	for len(text) > 0 && !utf8.ValidString(text) {
		text = text[:len(text)-1]
	}
	return text
}

// ValidateChatID validates a Telegram chat or user ID string.
// Allows @username, negative group IDs, or numeric user IDs.
func ValidateChatID(chatID string) error {
	if len(chatID) == 0 {
		return fmt.Errorf("chat ID cannot be empty")
	}

	if strings.HasPrefix(chatID, "@") {
		if len(chatID) < 2 {
			return fmt.Errorf("invalid chat username")
		}
		return nil
	}

	if _, err := strconv.ParseInt(chatID, 10, 64); err != nil {
		return fmt.Errorf("invalid chat ID format")
	}

	return nil
}
