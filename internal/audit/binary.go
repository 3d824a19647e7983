package audit

import (
	"fmt"
	"strings"
)

// DescribeBinary summarises a binary column instead of logging its bytes.
func DescribeBinary(fieldName string, size int) string {
	name := strings.ToLower(fieldName)
	switch {
	case containsAny(name, "picture", "photo", "avatar"):
		return "Picture uploaded: " + FormatSize(size)
	case strings.Contains(name, "image"):
		return "Image uploaded: " + FormatSize(size)
	case containsAny(name, "file", "document", "pdf"):
		return "File uploaded: " + FormatSize(size)
	default:
		return "Binary data: " + FormatSize(size)
	}
}

// FormatSize renders a byte count with truncating division; 1536 bytes is "1 KB".
func FormatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%d KB", n/1024)
	default:
		return fmt.Sprintf("%d MB", n/(1024*1024))
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
