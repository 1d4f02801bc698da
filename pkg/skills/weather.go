// Copyright 2025 Rizome Labs, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
)

// WeatherSkill exposes current conditions and short forecasts backed by
// the Open-Meteo API, which requires no API key.
type WeatherSkill struct {
	*BaseSkill
	GeocodingURL string       `json:"geocoding_url"`
	ForecastURL  string       `json:"forecast_url"`
	Client       *http.Client `json:"-"`
}

// NewWeatherSkill creates the weather/forecast skill
func NewWeatherSkill() *WeatherSkill {
	ws := &WeatherSkill{
		BaseSkill:    NewBaseSkill("weather/forecast", "Current weather conditions and daily forecasts by city name"),
		GeocodingURL: "https://geocoding-api.open-meteo.com/v1/search",
		ForecastURL:  "https://api.open-meteo.com/v1/forecast",
		Client:       &http.Client{Timeout: 10 * time.Second},
	}

	ws.AddCapability(&Capability{
		Name:        "getWeather",
		Description: "Get current weather for a city",
		Inputs: map[string]*Input{
			"city": {Type: "string", Description: "City name, e.g. \"Tokyo\"", Required: true},
		},
		OutputType: "object",
		Invoke:     ws.getWeather,
	})
	ws.AddCapability(&Capability{
		Name:        "getForecast",
		Description: "Get a daily temperature forecast for a city",
		Inputs: map[string]*Input{
			"city": {Type: "string", Description: "City name", Required: true},
			"days": {Type: "number", Description: "Number of days, 1 to 7 (default 3)", Required: false},
		},
		OutputType: "object",
		Invoke:     ws.getForecast,
	})
	return ws
}

func (ws *WeatherSkill) getWeather(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	city, err := StringArg(args, 0, "city")
	if err != nil {
		return nil, err
	}

	lat, lon, resolved, err := ws.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("current_weather", "true")

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	if err := ws.getJSON(ctx, ws.ForecastURL+"?"+query.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("weather lookup for %q failed: %w", city, err)
	}

	return map[string]interface{}{
		"city":        resolved,
		"temperature": payload.CurrentWeather.Temperature,
		"windSpeed":   payload.CurrentWeather.WindSpeed,
		"condition":   describeWeatherCode(payload.CurrentWeather.WeatherCode),
	}, nil
}

func (ws *WeatherSkill) getForecast(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	city, err := StringArg(args, 0, "city")
	if err != nil {
		return nil, err
	}
	days := IntArg(args, 1, 3)
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}

	lat, lon, resolved, err := ws.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("daily", "temperature_2m_max,temperature_2m_min")
	query.Set("forecast_days", fmt.Sprintf("%d", days))
	query.Set("timezone", "auto")

	var payload struct {
		Daily struct {
			Time    []string  `json:"time"`
			TempMax []float64 `json:"temperature_2m_max"`
			TempMin []float64 `json:"temperature_2m_min"`
		} `json:"daily"`
	}
	if err := ws.getJSON(ctx, ws.ForecastURL+"?"+query.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("forecast lookup for %q failed: %w", city, err)
	}

	forecast := make([]interface{}, 0, len(payload.Daily.Time))
	for i, day := range payload.Daily.Time {
		entry := map[string]interface{}{"date": day}
		if i < len(payload.Daily.TempMax) {
			entry["high"] = payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.TempMin) {
			entry["low"] = payload.Daily.TempMin[i]
		}
		forecast = append(forecast, entry)
	}

	return map[string]interface{}{
		"city": resolved,
		"days": forecast,
	}, nil
}

// geocode resolves a city name to coordinates
func (ws *WeatherSkill) geocode(ctx context.Context, city string) (lat, lon float64, resolved string, err error) {
	query := url.Values{}
	query.Set("name", city)
	query.Set("count", "1")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err = ws.getJSON(ctx, ws.GeocodingURL+"?"+query.Encode(), &payload); err != nil {
		return 0, 0, "", fmt.Errorf("geocoding %q failed: %w", city, err)
	}
	if len(payload.Results) == 0 {
		return 0, 0, "", fmt.Errorf("unknown city %q", city)
	}

	r := payload.Results[0]
	resolved = r.Name
	if r.Country != "" {
		resolved = fmt.Sprintf("%s, %s", r.Name, r.Country)
	}
	return r.Latitude, r.Longitude, resolved, nil
}

func (ws *WeatherSkill) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := ws.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// describeWeatherCode maps WMO weather codes to human-readable conditions
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "fog"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorm"
	}
}
