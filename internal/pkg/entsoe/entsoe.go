package entsoe

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

const DefaultBaseURL = "https://web-api.tp.entsoe.eu/api"

// biddingZone is the EIC code for the Dutch bidding zone.
const biddingZone = "10YNL----------L"

// dayAheadDocumentType selects day-ahead price documents.
const dayAheadDocumentType = "A44"

// Client reads day-ahead electricity prices from the ENTSO-E transparency
// platform. It backs up the primary market feed; the platform requires an
// API token and publishes no gas prices.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zap.L(),
	}
}

type marketDocument struct {
	TimeSeries []struct {
		Periods []period `xml:"Period"`
	} `xml:"TimeSeries"`
}

type period struct {
	Start      string  `xml:"timeInterval>start"`
	Resolution string  `xml:"resolution"`
	Points     []point `xml:"Point"`
}

type point struct {
	Position int     `xml:"position"`
	Amount   float64 `xml:"price.amount"`
}

// Prices returns the day-ahead electricity observations for one UTC
// calendar date. Each point's timestamp is derived from the period start
// and the document's resolution, so sub-hourly documents bucket correctly.
func (c *Client) Prices(ctx context.Context, commodity model.Commodity, date time.Time) (model.PriceObservations, error) {
	if commodity != model.CommodityElectricity {
		return nil, fmt.Errorf("entsoe: no %s feed", commodity)
	}

	day := date.UTC().Truncate(24 * time.Hour)
	params := url.Values{}
	params.Set("securityToken", c.token)
	params.Set("documentType", dayAheadDocumentType)
	params.Set("in_Domain", biddingZone)
	params.Set("out_Domain", biddingZone)
	params.Set("periodStart", day.Format("20060102")+"0000")
	params.Set("periodEnd", day.AddDate(0, 0, 1).Format("20060102")+"0000")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entsoe fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entsoe fetch: unexpected status %d", resp.StatusCode)
	}

	doc := marketDocument{}
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("entsoe fetch: %w", err)
	}

	var observations model.PriceObservations
	for _, series := range doc.TimeSeries {
		for _, p := range series.Periods {
			start, err := time.Parse("2006-01-02T15:04Z07:00", p.Start)
			if err != nil {
				return nil, fmt.Errorf("entsoe fetch: %w", err)
			}
			step := resolution(p.Resolution)
			for _, pt := range p.Points {
				observations = append(observations, model.PriceObservation{
					Commodity: commodity,
					Timestamp: start.Add(time.Duration(pt.Position-1) * step),
					// Published in EUR/MWh.
					Price: pt.Amount / 1000,
				})
			}
		}
	}
	c.logger.Debug("fetched day-ahead prices",
		zap.String("commodity", string(commodity)),
		zap.String("date", day.Format(time.DateOnly)),
		zap.Int("observations", len(observations)))
	return observations, nil
}

func resolution(iso string) time.Duration {
	switch iso {
	case "PT15M":
		return 15 * time.Minute
	case "PT30M":
		return 30 * time.Minute
	default: // PT60M
		return time.Hour
	}
}
