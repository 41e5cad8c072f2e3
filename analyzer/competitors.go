package analyzer

import (
	"net/url"
	"regexp"
	"strings"

	"visibility-scan-service/models"
)

const maxCompetitors = 10

// domainPattern conservatively matches domain-shaped substrings in free
// text. The TLD allow-list keeps sentence fragments like "vs.other" from
// registering as domains.
var domainPattern = regexp.MustCompile(`\b[a-z0-9][a-z0-9-]{0,61}\.(?:com|io|ai|co|net|org|app|dev|so|tech|cloud)\b`)

// restrictedTLDs are never competitors regardless of the exclusion set.
var restrictedTLDs = map[string]bool{"gov": true, "edu": true, "mil": true}

// multiLabelSeconds are second-level labels that indicate a two-part
// public suffix ("example.co.uk" registers as three labels, not two).
var multiLabelSeconds = map[string]bool{"co": true, "com": true, "net": true, "org": true, "ac": true, "gov": true, "edu": true}

// extractCompetitors unions registrable domains from citation URLs with
// domain-shaped substrings in the answer text and any configured
// competitor whose base label appears in the text, then removes the
// brand itself and every generic or restricted domain. The result is
// capped at 10 entries in discovery order.
func (a *Analyzer) extractCompetitors(rawText string, citationURLs []string, brandDomain string, competitorDomains []string) []string {
	brand := models.NormalizeDomain(brandDomain)
	brandBase := models.BaseLabel(brandDomain)
	lowerText := strings.ToLower(rawText)

	var out []string
	seen := make(map[string]bool)

	add := func(domain string) {
		if len(out) >= maxCompetitors {
			return
		}
		if domain == "" || seen[domain] || a.excluded(domain, brand, brandBase) {
			return
		}
		seen[domain] = true
		out = append(out, domain)
	}

	for _, raw := range citationURLs {
		add(registrableDomain(raw))
	}
	for _, match := range domainPattern.FindAllString(lowerText, -1) {
		add(models.NormalizeDomain(match))
	}
	// Configured competitors count even without a full domain string in
	// the text, as long as their base label shows up.
	for _, comp := range competitorDomains {
		if label := models.BaseLabel(comp); label != "" && strings.Contains(lowerText, label) {
			add(models.NormalizeDomain(comp))
		}
	}

	return out
}

// excluded reports whether a domain is the brand itself, a generic
// platform, or a restricted TLD.
func (a *Analyzer) excluded(domain, brand, brandBase string) bool {
	if domain == brand {
		return true
	}
	if brandBase != "" && models.BaseLabel(domain) == brandBase {
		return true
	}
	if a.generic[domain] {
		return true
	}
	labels := strings.Split(domain, ".")
	return restrictedTLDs[labels[len(labels)-1]]
}

// registrableDomain extracts the registrable domain from a raw URL:
// "https://www.blog.rival.co.uk/post" becomes "rival.co.uk".
func registrableDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		// Tolerate bare "domain/path" strings without a scheme.
		host = models.NormalizeDomain(rawURL)
	}
	host = models.NormalizeDomain(host)
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) >= 3 && len(labels[len(labels)-1]) == 2 && multiLabelSeconds[labels[len(labels)-2]] {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	if len(labels) >= 2 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return host
}
