package scorer

import (
	"strings"

	"github.com/sells-group/research-engine/internal/model"
)

// exactAuthority classifies whole domains.
var exactAuthority = map[string]model.AuthorityTier{
	"sec.gov":        model.AuthorityOfficial,
	"irs.gov":        model.AuthorityOfficial,
	"ftc.gov":        model.AuthorityOfficial,
	"justice.gov":    model.AuthorityOfficial,
	"reuters.com":    model.AuthorityPress,
	"bloomberg.com":  model.AuthorityPress,
	"wsj.com":        model.AuthorityPress,
	"ft.com":         model.AuthorityPress,
	"forbes.com":     model.AuthorityPress,
	"fortune.com":    model.AuthorityPress,
	"cnbc.com":       model.AuthorityPress,
	"techcrunch.com": model.AuthorityPress,
	"gartner.com":    model.AuthorityPress,
	"linkedin.com":   model.AuthorityGeneral,
	"crunchbase.com": model.AuthorityGeneral,
	"pitchbook.com":  model.AuthorityGeneral,
	"wikipedia.org":  model.AuthorityGeneral,
	"glassdoor.com":  model.AuthorityGeneral,
	"zoominfo.com":   model.AuthorityGeneral,
}

// suffixAuthority classifies by domain suffix, checked after exact matches.
var suffixAuthority = []struct {
	suffix string
	tier   model.AuthorityTier
}{
	{".gov", model.AuthorityOfficial},
	{".mil", model.AuthorityOfficial},
	{".edu", model.AuthorityGeneral},
}

// ClassifyAuthority maps a domain to its authority tier. Unrecognized domains
// get the lowest tier.
func ClassifyAuthority(domain string) model.AuthorityTier {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
	if domain == "" {
		return model.AuthorityUnverified
	}

	if tier, ok := exactAuthority[domain]; ok {
		return tier
	}
	// Subdomains inherit the parent domain's classification.
	for parent, tier := range exactAuthority {
		if strings.HasSuffix(domain, "."+parent) {
			return tier
		}
	}
	for _, s := range suffixAuthority {
		if strings.HasSuffix(domain, s.suffix) {
			return s.tier
		}
	}
	return model.AuthorityUnverified
}
