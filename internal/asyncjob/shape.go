package asyncjob

import "strings"

// SampleEvenly picks min(k, len(items)) items spread evenly across items, at
// indices floor(i*n/k), keeping their original order. When k >= len(items)
// the input is returned unchanged.
func SampleEvenly[T any](items []T, k int) []T {
	n := len(items)
	if k <= 0 {
		return []T{}
	}
	if k >= n {
		return items
	}

	out := make([]T, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, items[i*n/k])
	}
	return out
}

// UsageRecord is one grouped row of an API usage query.
type UsageRecord struct {
	HTTPMethod  string
	TemplateURI string
	Requests    *int
}

// EndpointUsage is the request count of one endpoint.
type EndpointUsage struct {
	Endpoint string `json:"endpoint,omitempty"`
	Requests *int   `json:"requests,omitempty"`
}

// UsageSummary totals usage records per endpoint.
type UsageSummary struct {
	TotalRequests       int             `json:"totalRequests"`
	RequestsPerEndpoint []EndpointUsage `json:"requestsPerEndpoint"`
}

// AggregateUsage sums Requests across records and lists each record as an
// endpoint ("METHOD /uri/template"). Records with neither method nor URI get
// no endpoint name.
func AggregateUsage(records []UsageRecord) UsageSummary {
	summary := UsageSummary{RequestsPerEndpoint: make([]EndpointUsage, 0, len(records))}
	for _, r := range records {
		if r.Requests != nil {
			summary.TotalRequests += *r.Requests
		}
		summary.RequestsPerEndpoint = append(summary.RequestsPerEndpoint, EndpointUsage{
			Endpoint: endpointName(r.HTTPMethod, r.TemplateURI),
			Requests: r.Requests,
		})
	}
	return summary
}

// endpointName joins method and URI template with a space. Empty or
// whitespace-only parts are dropped along with their separator.
func endpointName(method, uri string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{method, uri} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
