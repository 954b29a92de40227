package scorer

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// identifyingParams are query parameters that distinguish one document from
// another on the same path (SEC filings, press pages, ticker lookups). All
// other parameters are tracking noise and are stripped.
var identifyingParams = map[string]bool{
	"id":     true,
	"p":      true,
	"pid":    true,
	"ticker": true,
	"cik":    true,
}

// CanonicalURL reduces a URL to its deduplication key: lowercased scheme and
// host (www. prefix dropped), path with any trailing slash removed, and the
// query string stripped unless it carries an identifying parameter.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", eris.Wrap(err, "scorer: parse url")
	}
	if u.Host == "" {
		return "", eris.Errorf("scorer: url %q has no host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := u.EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	kept := url.Values{}
	for k, vs := range u.Query() {
		if identifyingParams[strings.ToLower(k)] {
			kept[k] = vs
		}
	}

	canonical := scheme + "://" + host + path
	if len(kept) > 0 {
		canonical += "?" + kept.Encode()
	}
	return canonical, nil
}

// Domain extracts the registrable host (lowercased, www-stripped) from a URL,
// returning "" on parse failure.
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
