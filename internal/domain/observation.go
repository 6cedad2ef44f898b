package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Observation is one station's SYNOP report for one timestep. Every
// measurement is optional because reports carry different parameter sets.
type Observation struct {
	ID      int64     `json:"-"`
	WIGOSID string    `json:"wigos_id"`
	Time    time.Time `json:"time"`

	NonCoordinatePressure                *float64 `json:"non_coordinate_pressure,omitempty"`
	CharacteristicOfPressureTendency     *float64 `json:"characteristic_of_pressure_tendency,omitempty"`
	NonCoordinateGeopotentialHeight      *float64 `json:"non_coordinate_geopotential_height,omitempty"`
	NonCoordinateGeopotential            *float64 `json:"non_coordinate_geopotential,omitempty"`
	AirTemperature                       *float64 `json:"air_temperature,omitempty"`
	AirTemperatureAt2m                   *float64 `json:"air_temperature_at2m,omitempty"`
	DewpointTemperature                  *float64 `json:"dewpoint_temperature,omitempty"`
	DewpointTemperatureAt2m              *float64 `json:"dewpoint_temperature_at2m,omitempty"`
	HorizontalVisibility                 *float64 `json:"horizontal_visibility,omitempty"`
	StateOfGround                        *float64 `json:"state_of_ground,omitempty"`
	GroundMinimumTemperaturePast12Hours  *float64 `json:"ground_minimum_temperature_past12hours,omitempty"`
	PresentWeather                       *float64 `json:"present_weather,omitempty"`
	PastWeather1                         *float64 `json:"past_weather1,omitempty"`
	PastWeather2                         *float64 `json:"past_weather2,omitempty"`
	TotalSunshine                        *float64 `json:"total_sunshine,omitempty"`
	MinimumTemperature                   *float64 `json:"minimum_temperature_at_height_and_over_period_specified,omitempty"`
	MaximumTemperature                   *float64 `json:"maximum_temperature_at_height_and_over_period_specified,omitempty"`
	MaximumWindGustSpeed                 *float64 `json:"maximum_wind_gust_speed,omitempty"`
	MaximumWindGustDirection             *float64 `json:"maximum_wind_gust_direction,omitempty"`
	WindDirection                        *float64 `json:"wind_direction,omitempty"`
	WindSpeed                            *float64 `json:"wind_speed,omitempty"`
	WindDirectionAt10m                   *float64 `json:"wind_direction_at10m,omitempty"`
	WindSpeedAt10m                       *float64 `json:"wind_speed_at10m,omitempty"`
	ExtremeCounterclockwiseWindDirection *float64 `json:"extreme_counterclockwise_wind_direction_of_avariable_wind,omitempty"`
	ExtremeClockwiseWindDirection        *float64 `json:"extreme_clockwise_wind_direction_of_avariable_wind,omitempty"`
	PressureReducedToMeanSeaLevel        *float64 `json:"pressure_reduced_to_mean_sea_level,omitempty"`
	PressureChange24Hour                 *float64 `json:"pressure_change_24hour,omitempty"`
	PressureChange3Hour                  *float64 `json:"pressure_change_3hour,omitempty"`
	RelativeHumidity                     *float64 `json:"relative_humidity,omitempty"`
	CloudCoverTotal                      *float64 `json:"cloud_cover_total,omitempty"`
	CloudAmount                          *float64 `json:"cloud_amount,omitempty"`
	HeightOfBaseOfCloud                  *float64 `json:"height_of_base_of_cloud,omitempty"`
	CloudType                            *float64 `json:"cloud_type,omitempty"`
	LongWaveRadiation                    *float64 `json:"long_wave_radiation_integrated_over_period_specified,omitempty"`
	GlobalSolarRadiation                 *float64 `json:"global_solar_radiation_integrated_over_period_specified,omitempty"`
	Evaporation                          *float64 `json:"evaporation,omitempty"`
	OtherWeatherPhenomena                *float64 `json:"other_weather_phenomena,omitempty"`
	Obscuration                          *float64 `json:"obscuration,omitempty"`
	PrecipitationType                    *float64 `json:"precipitation_type,omitempty"`
	TotalPrecipitation                   *float64 `json:"total_precipitation_or_total_water_equivalent,omitempty"`
	TotalPrecipitationPast1Hour          *float64 `json:"total_precipitation_past1hour,omitempty"`
	TotalPrecipitationPast3Hours         *float64 `json:"total_precipitation_past3hours,omitempty"`
	TotalPrecipitationPast12Hours        *float64 `json:"total_precipitation_past12hours,omitempty"`
	SoilTemperature                      *float64 `json:"soil_temperature,omitempty"`
}

var (
	errMissingStation = errors.New("observation has no station")
	errMissingTime    = errors.New("observation has no time")
)

// NewObservation builds the Observation for a resolved station from a
// normalized record. Legacy parameter names are renamed, and win over the
// current name when both are present; names with no column are returned as
// ignored, sorted.
func NewObservation(wigosID string, rec NormalizedRecord) (Observation, []string, error) {
	if wigosID == "" {
		return Observation{}, nil, errMissingStation
	}
	if rec.Time.IsZero() {
		return Observation{}, nil, errMissingTime
	}

	obs := Observation{WIGOSID: wigosID, Time: rec.Time.UTC()}
	var ignored []string
	for _, name := range assignmentOrder(rec.Properties) {
		p, ok := LookupParameter(name)
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		v := rec.Properties[name]
		p.Set(&obs, &v)
	}
	return obs, ignored, nil
}

// assignmentOrder sorts names with legacy names last, so a legacy reading
// overrides its renamed counterpart when a record carries both.
func assignmentOrder(props map[string]float64) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		_, li := legacyNames[names[i]]
		_, lj := legacyNames[names[j]]
		if li != lj {
			return lj
		}
		return names[i] < names[j]
	})
	return names
}

// Merge copies every parameter set on src onto o. Parameters src does not
// carry keep their current value.
func (o *Observation) Merge(src Observation) {
	for _, p := range Parameters {
		if v := p.Get(&src); v != nil {
			value := *v
			p.Set(o, &value)
		}
	}
}

// Values returns the set parameters keyed by column name.
func (o *Observation) Values() map[string]float64 {
	out := make(map[string]float64)
	for _, p := range Parameters {
		if v := p.Get(o); v != nil {
			out[p.Name] = *v
		}
	}
	return out
}

// Key identifies the observation's (station, time) slot.
func (o *Observation) Key() string {
	return fmt.Sprintf("%s|%s", o.WIGOSID, FormatTimestamp(o.Time))
}
