// Package domain contains the core business entities and rules.
package domain

// Service identifies a streaming back-end.
type Service string

const (
	Netflix     Service = "netflix"
	AmazonPrime Service = "amazon-prime"
	JioHotstar  Service = "jio-hotstar"
)

// serviceAliases maps every accepted spelling to its canonical member.
// Order of SupportedServiceValues follows this table.
var serviceAliases = []struct {
	value     string
	canonical Service
}{
	{"netflix", Netflix},
	{"amazon-prime", AmazonPrime},
	{"prime", AmazonPrime},
	{"jio-hotstar", JioHotstar},
	{"jio", JioHotstar},
}

// Services returns the canonical services in display order.
func Services() []Service {
	return []Service{Netflix, AmazonPrime, JioHotstar}
}

// SupportedServiceValues returns every value ParseService accepts,
// canonical names and aliases alike.
func SupportedServiceValues() []string {
	values := make([]string, 0, len(serviceAliases))
	for _, a := range serviceAliases {
		values = append(values, a.value)
	}
	return values
}

// ParseService maps a raw service value to its canonical member. Matching
// is exact; unknown values are rejected, never defaulted.
func ParseService(raw string) (Service, error) {
	for _, a := range serviceAliases {
		if a.value == raw {
			return a.canonical, nil
		}
	}
	return "", &UnsupportedServiceError{Value: raw, Supported: SupportedServiceValues()}
}

// ResolutionRequest is the caller input of a link resolution.
// ID is opaque and used verbatim in the target URL.
type ResolutionRequest struct {
	Service string
	ID      string
	Referer string
}
