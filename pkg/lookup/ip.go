package lookup

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPInfo is the geolocation record for a single address, as reported by
// ipinfo.io.
type IPInfo struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Loc      string `json:"loc,omitempty"`
	Org      string `json:"org,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// ipinfoBaseURL is a var so tests can point it at a local server.
var ipinfoBaseURL = "https://ipinfo.io"

// LookupIP geolocates an IP address. No credentials are needed for the
// free tier.
func (s *Service) LookupIP(ctx context.Context, addr string) (*IPInfo, error) {
	if net.ParseIP(strings.TrimSpace(addr)) == nil {
		return nil, fmt.Errorf("%q is not a valid IP address", addr)
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/%s/json", ipinfoBaseURL, strings.TrimSpace(addr)), nil)
	if err != nil {
		return nil, err
	}

	var info IPInfo
	if err := doJSON(s.client, req, &info); err != nil {
		return nil, fmt.Errorf("ipinfo lookup: %w", err)
	}
	return &info, nil
}
