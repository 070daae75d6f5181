package scanner

import "regexp"

// Rule is a single detector: a regex applied line by line, with an
// optional filter for matches that need a second, finer-grained check (entropy,
// Luhn, exclusion lists). Filter is a pure function of (match, line).
type Rule struct {
	ID          string
	Category    Category
	Severity    Severity
	Regex       *regexp.Regexp
	Filter      func(match, line string) bool
	Remediation string
}

var exampleEmailDomains = map[string]bool{
	"example.com": true, "example.org": true, "example.net": true,
	"test.com": true, "example.edu": true,
}

// defaultRules returns the required detector set from spec §4.4: secrets,
// dangerous operations, PII, obfuscation, and undeclared network use.
func defaultRules() []Rule {
	return []Rule{
		// Secrets.
		{
			ID: "SEC001", Category: CategorySecret, Severity: SeverityCritical,
			Regex:       regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			Remediation: "rotate the AWS access key and load credentials from the environment instead of source",
		},
		{
			ID: "SEC002", Category: CategorySecret, Severity: SeverityCritical,
			Regex:       regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`),
			Remediation: "revoke the GitHub token and load it from a secret store",
		},
		{
			ID: "SEC003", Category: CategorySecret, Severity: SeverityCritical,
			Regex:       regexp.MustCompile(`sk_live_[0-9a-zA-Z]{24,}`),
			Remediation: "revoke the Stripe live key and use a restricted, environment-sourced key",
		},
		{
			ID: "SEC004", Category: CategorySecret, Severity: SeverityHigh,
			Regex:       regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
			Remediation: "revoke the OpenAI API key and load it from the environment",
		},
		{
			ID: "SEC005", Category: CategorySecret, Severity: SeverityHigh,
			Regex:       regexp.MustCompile(`xox[baprs]-[0-9A-Za-z-]{10,}`),
			Remediation: "revoke the Slack bot token and load it from a secret store",
		},
		{
			ID: "SEC006", Category: CategorySecret, Severity: SeverityCritical,
			Regex:       regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |)PRIVATE KEY-----`),
			Remediation: "remove the embedded private key; ship key material out of band",
		},
		{
			ID: "SEC007", Category: CategorySecret, Severity: SeverityMedium,
			Regex: regexp.MustCompile(`(?i)(api_key|password)\s*[:=]\s*["'][^"']{4,}["']`),
			Filter: func(match, line string) bool {
				lower := stripQuotes(match)
				switch lower {
				case "", "changeme", "xxx", "todo", "<redacted>":
					return false
				}
				return true
			},
			Remediation: "do not hardcode credentials; read them from configuration or environment at runtime",
		},
		{
			ID: "SEC008", Category: CategorySecret, Severity: SeverityMedium,
			Regex: regexp.MustCompile(`["'][A-Za-z0-9+/_=\-]{40,}["']`),
			Filter: func(match, line string) bool {
				value := stripQuotes(match)
				return len(value) >= HighEntropyMinLength && ShannonEntropy(value) >= HighEntropyBitsPerChar
			},
			Remediation: "this looks like a high-entropy secret; move it out of source",
		},

		// Dangerous operations.
		{
			ID: "DNG001", Category: CategoryDangerous, Severity: SeverityHigh,
			Regex:       regexp.MustCompile(`\b(eval|exec)\s*\(`),
			Remediation: "avoid eval/exec of dynamic content; use explicit, reviewed code paths",
		},
		{
			ID: "DNG002", Category: CategoryDangerous, Severity: SeverityCritical,
			Regex:       regexp.MustCompile(`(curl|wget)\s+[^|]*\|\s*(sh|bash|zsh)`),
			Remediation: "do not pipe remote downloads directly into a shell",
		},
		{
			ID: "DNG003", Category: CategoryDangerous, Severity: SeverityCritical,
			Regex:       regexp.MustCompile(`rm\s+-rf\s+(/|~|\$HOME)\b`),
			Remediation: "scope destructive filesystem commands to a specific, non-root path",
		},
		{
			ID: "DNG004", Category: CategoryDangerous, Severity: SeverityHigh,
			Regex:       regexp.MustCompile(`child_process|subprocess\.(Popen|call|run)|os\.system\(`),
			Remediation: "declare required commands in permissions.exec instead of spawning processes directly",
		},
		{
			ID: "DNG005", Category: CategoryDangerous, Severity: SeverityHigh,
			Regex:       regexp.MustCompile(`process\.env(\[[^]]+\]|\.\w+).{0,40}(fetch|axios|http|curl)`),
			Remediation: "do not forward environment variables to a network call",
		},

		// PII.
		{
			ID: "PII001", Category: CategoryPII, Severity: SeverityLow,
			Regex:       regexp.MustCompile(`/(Users|home)/[A-Za-z0-9_.\-]+`),
			Remediation: "avoid embedding a developer's home directory path",
		},
		{
			ID: "PII002", Category: CategoryPII, Severity: SeverityLow,
			Regex: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
			Filter: func(match, line string) bool {
				parts := []byte(match)
				at := -1
				for i, b := range parts {
					if b == '@' {
						at = i
						break
					}
				}
				if at < 0 {
					return true
				}
				return !exampleEmailDomains[match[at+1:]]
			},
			Remediation: "remove real email addresses from sample content",
		},
		{
			ID: "PII003", Category: CategoryPII, Severity: SeverityLow,
			Regex:       regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`),
			Remediation: "remove real phone numbers from sample content",
		},
		{
			ID: "PII005", Category: CategoryPII, Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),
			Filter: func(match, line string) bool {
				return LuhnCheck(match)
			},
			Remediation: "remove real payment card numbers from sample content",
		},

		// Obfuscation.
		{
			ID: "OBF001", Category: CategoryObfuscation, Severity: SeverityMedium,
			Regex:       regexp.MustCompile(`atob\(|base64\.b64decode|Buffer\.from\([^)]*['"]base64['"]\)|base64\.decode`),
			Remediation: "avoid base64-decoding dynamic content without a declared reason",
		},
		{
			ID: "OBF002", Category: CategoryObfuscation, Severity: SeverityMedium,
			Regex:       regexp.MustCompile(`(\\x[0-9A-Fa-f]{2}){8,}`),
			Remediation: "long hex-escape runs usually indicate obfuscated payloads",
		},
		{
			ID: "OBF003", Category: CategoryObfuscation, Severity: SeverityLow,
			Regex: regexp.MustCompile(`[A-Za-z0-9+/]{80,}={0,2}`),
			Filter: func(match, line string) bool {
				return ShannonEntropy(match) >= HighEntropyBitsPerChar
			},
			Remediation: "long base64-looking blobs should be declared, reviewed assets, not inlined",
		},
		{
			ID: "OBF004", Category: CategoryObfuscation, Severity: SeverityMedium,
			Regex:       regexp.MustCompile(`String\.fromCharCode\(|chr\(\d+\)`),
			Remediation: "character-code synthesis is a common string-obfuscation technique",
		},
		{
			ID: "OBF005", Category: CategoryObfuscation, Severity: SeverityLow,
			Regex:       regexp.MustCompile(`decodeURIComponent\(|unquote\(|urllib\.parse\.unquote`),
			Remediation: "URL-decoding dynamic content can unpack an obfuscated payload",
		},

		// Network.
		{
			ID: "NET002", Category: CategoryNetwork, Severity: SeverityMedium,
			Regex: regexp.MustCompile(`(fetch|axios\.(get|post)|requests\.(get|post))\(['"]https?://[A-Za-z0-9.\-]+`),
			Filter: func(match, line string) bool {
				return !regexp.MustCompile(`https?://(localhost|127\.0\.0\.1)$`).MatchString(match)
			},
			Remediation: "declare external hosts in permissions.network.domains",
		},
		{
			ID: "NET003", Category: CategoryNetwork, Severity: SeverityLow,
			Regex:       regexp.MustCompile(`\b(require\(['"]https?['"]\)|import\s+.*from\s+['"]https?['"]|net/http)\b`),
			Remediation: "declare network module usage in the manifest",
		},
		{
			ID: "NET004", Category: CategoryNetwork, Severity: SeverityMedium,
			Regex:       regexp.MustCompile(`wss?://[^\s'"]+`),
			Remediation: "declare websocket targets in permissions.network.domains",
		},
		{
			ID: "NET005", Category: CategoryNetwork, Severity: SeverityInfo,
			Regex:       regexp.MustCompile(`\b(axios|requests|httpx|urllib3)\b`),
			Remediation: "named HTTP client libraries indicate network capability; confirm it is declared",
		},
	}
}
