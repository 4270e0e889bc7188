package request

import (
	"strings"
)

// curlString renders the prepared request as a copy-pastable curl command.
// The Authorization value is masked so the rendering is safe to share.
func curlString(p *Prepared) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(p.Method)
	b.WriteString(" ")
	b.WriteString(shellQuote(p.URL))

	p.Headers.Each(func(name, value string) {
		if strings.EqualFold(name, "Authorization") {
			value = maskAuthorization(value)
		}
		b.WriteString(" \\\n  -H ")
		b.WriteString(shellQuote(name + ": " + value))
	})

	if len(p.Body) > 0 {
		b.WriteString(" \\\n  -d ")
		b.WriteString(shellQuote(string(p.Body)))
	}
	return b.String()
}

// maskAuthorization keeps the scheme prefix and the credential's first and
// last three characters; short credentials are hidden entirely.
func maskAuthorization(value string) string {
	scheme, cred, found := strings.Cut(value, " ")
	if !found {
		return maskCredential(value)
	}
	return scheme + " " + maskCredential(cred)
}

func maskCredential(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:3] + "..." + s[len(s)-3:]
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
