// redact прячет чувствительные значения перед записью в лог.
package redact

// Username маскирует имя пользователя, оставляя первые два символа.
func Username(s string) string {
	r := []rune(s)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
