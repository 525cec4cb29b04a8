package controllers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Overridable in tests.
var (
	nbkRatesURL      = "https://nationalbank.kz/rss/get_rates.cfm"
	fallbackRatesURL = "https://api.exchangerate-api.com/v4/latest/KZT"

	exchangeClient = &http.Client{Timeout: 10 * time.Second}
)

var trackedCurrencies = []string{"USD", "EUR", "RUB", "CNY"}

// GetRates proxies the daily KZT exchange rates. The National Bank RSS feed
// is the primary source; when it is down or empty the public
// exchangerate-api is used instead. An error is reported only when both
// providers fail.
func GetRates(c *gin.Context) {
	today := time.Now()
	dateStr := today.Format("02.01.2006")

	rates, err := fetchNBKRates(dateStr)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"rates":   rates,
			"date":    dateStr,
			"source":  "NBK",
		})
		return
	}
	logrus.WithError(err).Warn("primary exchange source failed, trying fallback")

	rates, err = fetchFallbackRates()
	if err != nil {
		logrus.WithError(err).Error("fallback exchange source failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch exchange rates",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rates":   rates,
		"date":    today.Format("2006-01-02"),
		"source":  "exchangerate-api",
	})
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

// fetchNBKRates pulls the National Bank RSS feed for the given date and
// extracts the tracked currencies.
func fetchNBKRates(dateStr string) (map[string]float64, error) {
	resp, err := exchangeClient.Get(fmt.Sprintf("%s?fdate=%s", nbkRatesURL, dateStr))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from rates feed", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, err
	}

	rates := map[string]float64{}
	for _, item := range feed.Items {
		value, err := parseRateValue(item.Description)
		if err != nil {
			continue
		}
		for _, cur := range trackedCurrencies {
			title := item.Title
			matches := strings.Contains(title, cur) ||
				(cur == "CNY" && strings.Contains(title, "RMB"))
			if matches {
				if _, seen := rates[cur]; !seen {
					rates[cur] = value
				}
				break
			}
		}
	}

	if len(rates) == 0 {
		return nil, errors.New("no rates found in feed")
	}
	return rates, nil
}

// parseRateValue extracts the numeric rate from a feed description, which
// may carry currency names and use a comma as the decimal separator.
func parseRateValue(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	return strconv.ParseFloat(b.String(), 64)
}

// fetchFallbackRates queries exchangerate-api, which reports how much of
// each currency one tenge buys, and inverts that into KZT prices.
func fetchFallbackRates() (map[string]float64, error) {
	resp, err := exchangeClient.Get(fallbackRatesURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from fallback provider", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	rates := map[string]float64{}
	for _, cur := range trackedCurrencies {
		value := gjson.GetBytes(body, "rates."+cur).Float()
		if value <= 0 {
			return nil, fmt.Errorf("missing %s rate in fallback response", cur)
		}
		rates[cur] = math.Round(1/value*100) / 100
	}
	return rates, nil
}
