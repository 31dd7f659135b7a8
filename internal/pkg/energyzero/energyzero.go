package energyzero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

const DefaultBaseURL = "https://api.energyzero.nl/v1"

// EnergyZero usage type selector. 1 is electricity, 3 is gas.
var usageTypes = map[model.Commodity]int{
	model.CommodityElectricity: 1,
	model.CommodityGas:         3,
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zap.L(),
	}
}

type priceEntry struct {
	Price       float64   `json:"price"`
	ReadingDate time.Time `json:"readingDate"`
}

type pricesResponse struct {
	Prices []priceEntry `json:"Prices"`
}

// Prices returns the raw day-ahead observations for one commodity on one
// UTC calendar date. Prices are requested excluding VAT. An empty result
// set is not an error here; the aggregator decides what counts as no data.
func (c *Client) Prices(ctx context.Context, commodity model.Commodity, date time.Time) (model.PriceObservations, error) {
	usageType, ok := usageTypes[commodity]
	if !ok {
		return nil, fmt.Errorf("unknown commodity %q", commodity)
	}

	day := date.UTC().Truncate(24 * time.Hour)
	params := url.Values{}
	params.Set("fromDate", day.Format(time.DateOnly))
	params.Set("tillDate", day.AddDate(0, 0, 1).Format(time.DateOnly))
	params.Set("interval", "4")
	params.Set("usageType", strconv.Itoa(usageType))
	params.Set("inclBtw", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/energyprices?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("energyzero %s fetch: %w", commodity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("energyzero %s fetch: unexpected status %d", commodity, resp.StatusCode)
	}

	body := pricesResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("energyzero %s fetch: %w", commodity, err)
	}

	observations := make(model.PriceObservations, 0, len(body.Prices))
	for _, entry := range body.Prices {
		observations = append(observations, model.PriceObservation{
			Commodity: commodity,
			Timestamp: entry.ReadingDate,
			Price:     entry.Price,
		})
	}
	c.logger.Debug("fetched day-ahead prices",
		zap.String("commodity", string(commodity)),
		zap.String("date", day.Format(time.DateOnly)),
		zap.Int("observations", len(observations)))
	return observations, nil
}
