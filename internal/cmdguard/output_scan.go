package cmdguard

import (
	"regexp"
	"strings"
)

// secretPatterns match credential values that commonly end up in shell
// output. Variable names alone are not matched here.
var secretPatterns = []*regexp.Regexp{
	// Telegram bot tokens: 123456789:AA...
	regexp.MustCompile(`\b\d{8,10}:[A-Za-z0-9_-]{35}\b`),
	// OpenAI style keys
	regexp.MustCompile(`sk-[a-zA-Z0-9\-]{20,}`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`),
	// AWS access key ids
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	// Long hex strings
	regexp.MustCompile(`\b[a-f0-9]{64,}\b`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]{20,}`),
}

const redactPlaceholder = "[REDACTED]"

// ScanOutput returns a redacted copy of output and the number of
// secrets replaced.
func ScanOutput(output string) (string, int) {
	count := 0
	result := output
	for _, re := range secretPatterns {
		if matches := re.FindAllString(result, -1); len(matches) > 0 {
			count += len(matches)
			result = re.ReplaceAllString(result, redactPlaceholder)
		}
	}
	return result, count
}

// envKeyValuePattern matches KEY=VALUE lines from env, set, export -p or
// declare -p whose KEY is sensitive.
var envKeyValuePattern = regexp.MustCompile(
	`(?im)^(?:declare -x |export )?` +
		`(HOSTWARDEN_\w*|TELEGRAM_\w*|BOT_TOKEN|API_KEY|API_SECRET|AWS_SECRET_ACCESS_KEY|GITHUB_TOKEN)` +
		`[= ].*$`,
)

// ScanOutputFull runs secret pattern scanning and env line scanning.
func ScanOutputFull(output string) (string, int) {
	result, count := ScanOutput(output)

	if envMatches := envKeyValuePattern.FindAllString(result, -1); len(envMatches) > 0 {
		count += len(envMatches)
		result = envKeyValuePattern.ReplaceAllString(result, redactPlaceholder)
	}

	for strings.Contains(result, redactPlaceholder+"\n"+redactPlaceholder) {
		result = strings.ReplaceAll(result, redactPlaceholder+"\n"+redactPlaceholder, redactPlaceholder)
	}
	return result, count
}

var sensitiveEnvPrefixes = []string{"HOSTWARDEN_", "TELEGRAM_"}

var sensitiveEnvNames = map[string]bool{
	"BOT_TOKEN":             true,
	"API_KEY":               true,
	"API_SECRET":            true,
	"AWS_SECRET_ACCESS_KEY": true,
	"GITHUB_TOKEN":          true,
}

// sanitizeEnv drops the gateway's own credentials from a child environment.
func sanitizeEnv(env []string) []string {
	clean := make([]string, 0, len(env))
	for _, entry := range env {
		name, _, _ := strings.Cut(entry, "=")
		if sensitiveEnv(name) {
			continue
		}
		clean = append(clean, entry)
	}
	return clean
}

func sensitiveEnv(name string) bool {
	upper := strings.ToUpper(name)
	if sensitiveEnvNames[upper] {
		return true
	}
	for _, p := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}
