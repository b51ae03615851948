package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	appidentity "github.com/Jay1425/ExpensoX/internal/application/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// RestCountriesResolver resolves a country name to its currency code
// using the restcountries.com API.
type RestCountriesResolver struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRestCountriesResolver creates a resolver against the given base
// URL (typically https://restcountries.com)
func NewRestCountriesResolver(baseURL string, timeout time.Duration, logger *zap.Logger) *RestCountriesResolver {
	return &RestCountriesResolver{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// countryResponse is the subset of the restcountries payload we need
type countryResponse struct {
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
}

// CurrencyForCountry looks up the currency of a country by its common
// name. Countries with several currencies resolve to the first code in
// alphabetical order so repeated signups agree.
func (r *RestCountriesResolver) CurrencyForCountry(ctx context.Context, country string) (valueobject.Currency, error) {
	endpoint := fmt.Sprintf("%s/v3.1/name/%s?fields=currencies&fullText=true",
		r.baseURL, url.PathEscape(country))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build country lookup request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("country lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("unknown country %q", country)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("country lookup returned status %d", resp.StatusCode)
	}

	var countries []countryResponse
	if err := json.NewDecoder(resp.Body).Decode(&countries); err != nil {
		return "", fmt.Errorf("failed to decode country lookup response: %w", err)
	}
	if len(countries) == 0 || len(countries[0].Currencies) == 0 {
		return "", fmt.Errorf("no currency listed for country %q", country)
	}

	codes := make([]string, 0, len(countries[0].Currencies))
	for code := range countries[0].Currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	code, err := valueobject.ParseCurrency(codes[0])
	if err != nil {
		return "", fmt.Errorf("country %q lists invalid currency %q: %w", country, codes[0], err)
	}

	r.logger.Debug("Resolved country currency",
		zap.String("country", country),
		zap.String("currency", string(code)),
	)
	return code, nil
}

var _ appidentity.CurrencyResolver = (*RestCountriesResolver)(nil)
