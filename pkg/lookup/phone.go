// Package lookup provides single-call adapters for phone number and IP
// address enrichment. These are thin API clients with no internal state
// machine; the provider set is built once, when the lookup service is
// created, from the configured credentials, and the provider for a given
// number is picked from that set by the number's region.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/msnfinder/msnfinder/pkg/log"
)

// PhoneInfo is the provider-neutral result of a phone lookup.
type PhoneInfo struct {
	Number   string `json:"number"`
	Region   string `json:"region"`
	Location string `json:"location,omitempty"`
	Carrier  string `json:"carrier,omitempty"`
	Provider string `json:"provider"`
}

// PhoneProvider is one carrier/location lookup capability.
type PhoneProvider interface {
	Name() string
	Lookup(ctx context.Context, number string) (*PhoneInfo, error)
}

// Credentials holds the API credentials the providers are gated on.
type Credentials struct {
	TwilioSID    string
	TwilioToken  string
	TelnyxToken  string
	NumverifyKey string
}

// Service resolves phone numbers through the configured providers,
// preferring region-appropriate ones.
type Service struct {
	providers []PhoneProvider
	client    *http.Client
	logger    *log.Logger
}

// regionPreference lists which providers tend to have usable carrier data
// per calling region. Regions not listed fall back to the first configured
// provider.
var regionPreference = map[string][]string{
	"AU": {"twilio", "telnyx"},
	"IN": {"numverify"},
}

// NewService builds the provider set once from the given credentials, in
// preference order: Twilio, Telnyx, Numverify. Providers without
// credentials are simply absent.
func NewService(creds Credentials) *Service {
	client := &http.Client{Timeout: 15 * time.Second}

	var providers []PhoneProvider
	if creds.TwilioSID != "" && creds.TwilioToken != "" {
		providers = append(providers, &twilioProvider{
			sid: creds.TwilioSID, token: creds.TwilioToken,
			baseURL: "https://lookups.twilio.com/v1/PhoneNumbers",
			client:  client,
		})
	}
	if creds.TelnyxToken != "" {
		providers = append(providers, &telnyxProvider{
			token:   creds.TelnyxToken,
			baseURL: "https://api.telnyx.com/v2/number_lookup",
			client:  client,
		})
	}
	if creds.NumverifyKey != "" {
		providers = append(providers, &numverifyProvider{
			key:     creds.NumverifyKey,
			baseURL: "https://api.apilayer.com/number_verification/validate",
			client:  client,
		})
	}

	return &Service{
		providers: providers,
		client:    client,
		logger:    log.ForService("lookup"),
	}
}

// providerFor picks a provider for the given region: the first configured
// one named in the region's preference list, or the first configured
// provider when the region has no preference (or none of its preferred
// providers carry credentials). Returns nil when no provider is configured.
func (s *Service) providerFor(region string) PhoneProvider {
	if len(s.providers) == 0 {
		return nil
	}
	for _, name := range regionPreference[region] {
		for _, p := range s.providers {
			if p.Name() == name {
				return p
			}
		}
	}
	return s.providers[0]
}

// LookupPhone parses and validates the number, then queries the provider
// selected for the number's region. With no providers configured it still
// returns the parsed region, which needs no credentials.
func (s *Service) LookupPhone(ctx context.Context, number string) (*PhoneInfo, error) {
	parsed, err := phonenumbers.Parse(number, "")
	if err != nil {
		return nil, fmt.Errorf("parsing phone number: %w", err)
	}
	region := phonenumbers.GetRegionCodeForNumber(parsed)

	provider := s.providerFor(region)
	if provider == nil {
		s.logger.Warnf("no lookup credentials configured, returning region only")
		return &PhoneInfo{Number: number, Region: region, Provider: "none"}, nil
	}

	s.logger.Debugf("looking up %s via %s", number, provider.Name())
	info, err := provider.Lookup(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%s lookup: %w", provider.Name(), err)
	}
	info.Region = region
	return info, nil
}

// Providers lists the names of the configured providers, in selection
// order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

type twilioProvider struct {
	sid     string
	token   string
	baseURL string
	client  *http.Client
}

func (p *twilioProvider) Name() string { return "twilio" }

func (p *twilioProvider) Lookup(ctx context.Context, number string) (*PhoneInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/%s?Type=carrier", p.baseURL, number), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(p.sid, p.token)

	var payload struct {
		PhoneNumber string `json:"phone_number"`
		Carrier     struct {
			Name string `json:"name"`
		} `json:"carrier"`
	}
	if err := doJSON(p.client, req, &payload); err != nil {
		return nil, err
	}
	return &PhoneInfo{
		Number:   payload.PhoneNumber,
		Carrier:  payload.Carrier.Name,
		Provider: p.Name(),
	}, nil
}

type telnyxProvider struct {
	token   string
	baseURL string
	client  *http.Client
}

func (p *telnyxProvider) Name() string { return "telnyx" }

func (p *telnyxProvider) Lookup(ctx context.Context, number string) (*PhoneInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/%s", p.baseURL, number), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	var payload struct {
		Data struct {
			PhoneNumber string `json:"phone_number"`
			Carrier     struct {
				Name string `json:"name"`
			} `json:"carrier"`
		} `json:"data"`
	}
	if err := doJSON(p.client, req, &payload); err != nil {
		return nil, err
	}
	return &PhoneInfo{
		Number:   payload.Data.PhoneNumber,
		Carrier:  payload.Data.Carrier.Name,
		Provider: p.Name(),
	}, nil
}

type numverifyProvider struct {
	key     string
	baseURL string
	client  *http.Client
}

func (p *numverifyProvider) Name() string { return "numverify" }

func (p *numverifyProvider) Lookup(ctx context.Context, number string) (*PhoneInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s?number=%s", p.baseURL, number), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", p.key)

	var payload struct {
		Valid    bool   `json:"valid"`
		Number   string `json:"number"`
		Location string `json:"location"`
		Carrier  string `json:"carrier"`
	}
	if err := doJSON(p.client, req, &payload); err != nil {
		return nil, err
	}
	if !payload.Valid {
		return nil, fmt.Errorf("number %s reported invalid", number)
	}
	return &PhoneInfo{
		Number:   payload.Number,
		Location: payload.Location,
		Carrier:  payload.Carrier,
		Provider: p.Name(),
	}, nil
}

func doJSON(client *http.Client, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.ForService("lookup").Warnf("closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
