package entsoe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Publication_MarketDocument xmlns="urn:iec62325.351:tc57wg16:451-3:publicationdocument:7:0">
  <TimeSeries>
    <Period>
      <timeInterval>
        <start>2025-05-31T22:00Z</start>
        <end>2025-06-01T22:00Z</end>
      </timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><price.amount>90.10</price.amount></Point>
      <Point><position>2</position><price.amount>105.00</price.amount></Point>
    </Period>
  </TimeSeries>
</Publication_MarketDocument>`

func TestPrices_QueryAndDecode(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()

	c := New(srv.URL, "token-123", 5*time.Second)
	obs, err := c.Prices(context.Background(), model.CommodityElectricity, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"securityToken": "token-123",
		"documentType":  "A44",
		"in_Domain":     "10YNL----------L",
		"out_Domain":    "10YNL----------L",
		"periodStart":   "202506010000",
		"periodEnd":     "202506020000",
	}, gotQuery)

	require.Len(t, obs, 2)
	// EUR/MWh converted to EUR/kWh.
	assert.InDelta(t, 0.0901, obs[0].Price, 1e-9)
	assert.InDelta(t, 0.105, obs[1].Price, 1e-9)
	assert.Equal(t, time.Date(2025, 5, 31, 22, 0, 0, 0, time.UTC), obs[0].Timestamp)
	assert.Equal(t, time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC), obs[1].Timestamp)
}

func TestPrices_QuarterHourResolution(t *testing.T) {
	doc := `<Publication_MarketDocument>
  <TimeSeries>
    <Period>
      <timeInterval><start>2025-06-01T00:00Z</start><end>2025-06-01T01:00Z</end></timeInterval>
      <resolution>PT15M</resolution>
      <Point><position>1</position><price.amount>100</price.amount></Point>
      <Point><position>3</position><price.amount>120</price.amount></Point>
    </Period>
  </TimeSeries>
</Publication_MarketDocument>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	c := New(srv.URL, "token", 5*time.Second)
	obs, err := c.Prices(context.Background(), model.CommodityElectricity, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, obs, 2)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), obs[0].Timestamp)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC), obs[1].Timestamp)
}

func TestPrices_NoGasFeed(t *testing.T) {
	c := New("http://localhost", "token", time.Second)
	_, err := c.Prices(context.Background(), model.CommodityGas, time.Now().UTC())
	assert.ErrorContains(t, err, "no gas feed")
}

func TestPrices_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "bad-token", time.Second)
	_, err := c.Prices(context.Background(), model.CommodityElectricity, time.Now().UTC())
	assert.ErrorContains(t, err, "unexpected status 401")
}
