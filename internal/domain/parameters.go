package domain

// legacyNames maps decoder parameter names onto their column names.
var legacyNames = map[string]string{
	"24hour_pressure_change": "pressure_change_24hour",
	"3hour_pressure_change":  "pressure_change_3hour",
}

// Parameter describes one optional measurement column of an Observation.
type Parameter struct {
	Name  string
	field func(*Observation) **float64
}

// Parameters enumerates every measurement column, in storage order.
var Parameters = []Parameter{
	{"non_coordinate_pressure", func(o *Observation) **float64 { return &o.NonCoordinatePressure }},
	{"characteristic_of_pressure_tendency", func(o *Observation) **float64 { return &o.CharacteristicOfPressureTendency }},
	{"non_coordinate_geopotential_height", func(o *Observation) **float64 { return &o.NonCoordinateGeopotentialHeight }},
	{"non_coordinate_geopotential", func(o *Observation) **float64 { return &o.NonCoordinateGeopotential }},
	{"air_temperature", func(o *Observation) **float64 { return &o.AirTemperature }},
	{"air_temperature_at2m", func(o *Observation) **float64 { return &o.AirTemperatureAt2m }},
	{"dewpoint_temperature", func(o *Observation) **float64 { return &o.DewpointTemperature }},
	{"dewpoint_temperature_at2m", func(o *Observation) **float64 { return &o.DewpointTemperatureAt2m }},
	{"horizontal_visibility", func(o *Observation) **float64 { return &o.HorizontalVisibility }},
	{"state_of_ground", func(o *Observation) **float64 { return &o.StateOfGround }},
	{"ground_minimum_temperature_past12hours", func(o *Observation) **float64 { return &o.GroundMinimumTemperaturePast12Hours }},
	{"present_weather", func(o *Observation) **float64 { return &o.PresentWeather }},
	{"past_weather1", func(o *Observation) **float64 { return &o.PastWeather1 }},
	{"past_weather2", func(o *Observation) **float64 { return &o.PastWeather2 }},
	{"total_sunshine", func(o *Observation) **float64 { return &o.TotalSunshine }},
	{"minimum_temperature_at_height_and_over_period_specified", func(o *Observation) **float64 { return &o.MinimumTemperature }},
	{"maximum_temperature_at_height_and_over_period_specified", func(o *Observation) **float64 { return &o.MaximumTemperature }},
	{"maximum_wind_gust_speed", func(o *Observation) **float64 { return &o.MaximumWindGustSpeed }},
	{"maximum_wind_gust_direction", func(o *Observation) **float64 { return &o.MaximumWindGustDirection }},
	{"wind_direction", func(o *Observation) **float64 { return &o.WindDirection }},
	{"wind_speed", func(o *Observation) **float64 { return &o.WindSpeed }},
	{"wind_direction_at10m", func(o *Observation) **float64 { return &o.WindDirectionAt10m }},
	{"wind_speed_at10m", func(o *Observation) **float64 { return &o.WindSpeedAt10m }},
	{"extreme_counterclockwise_wind_direction_of_avariable_wind", func(o *Observation) **float64 { return &o.ExtremeCounterclockwiseWindDirection }},
	{"extreme_clockwise_wind_direction_of_avariable_wind", func(o *Observation) **float64 { return &o.ExtremeClockwiseWindDirection }},
	{"pressure_reduced_to_mean_sea_level", func(o *Observation) **float64 { return &o.PressureReducedToMeanSeaLevel }},
	{"pressure_change_24hour", func(o *Observation) **float64 { return &o.PressureChange24Hour }},
	{"pressure_change_3hour", func(o *Observation) **float64 { return &o.PressureChange3Hour }},
	{"relative_humidity", func(o *Observation) **float64 { return &o.RelativeHumidity }},
	{"cloud_cover_total", func(o *Observation) **float64 { return &o.CloudCoverTotal }},
	{"cloud_amount", func(o *Observation) **float64 { return &o.CloudAmount }},
	{"height_of_base_of_cloud", func(o *Observation) **float64 { return &o.HeightOfBaseOfCloud }},
	{"cloud_type", func(o *Observation) **float64 { return &o.CloudType }},
	{"long_wave_radiation_integrated_over_period_specified", func(o *Observation) **float64 { return &o.LongWaveRadiation }},
	{"global_solar_radiation_integrated_over_period_specified", func(o *Observation) **float64 { return &o.GlobalSolarRadiation }},
	{"evaporation", func(o *Observation) **float64 { return &o.Evaporation }},
	{"other_weather_phenomena", func(o *Observation) **float64 { return &o.OtherWeatherPhenomena }},
	{"obscuration", func(o *Observation) **float64 { return &o.Obscuration }},
	{"precipitation_type", func(o *Observation) **float64 { return &o.PrecipitationType }},
	{"total_precipitation_or_total_water_equivalent", func(o *Observation) **float64 { return &o.TotalPrecipitation }},
	{"total_precipitation_past1hour", func(o *Observation) **float64 { return &o.TotalPrecipitationPast1Hour }},
	{"total_precipitation_past3hours", func(o *Observation) **float64 { return &o.TotalPrecipitationPast3Hours }},
	{"total_precipitation_past12hours", func(o *Observation) **float64 { return &o.TotalPrecipitationPast12Hours }},
	{"soil_temperature", func(o *Observation) **float64 { return &o.SoilTemperature }},
}

var parameterIndex = func() map[string]Parameter {
	idx := make(map[string]Parameter, len(Parameters))
	for _, p := range Parameters {
		idx[p.Name] = p
	}
	return idx
}()

// LookupParameter returns the column for a name, after applying the legacy renames.
func LookupParameter(name string) (Parameter, bool) {
	p, ok := parameterIndex[CanonicalName(name)]
	return p, ok
}

// CanonicalName applies the legacy renames to a decoder parameter name.
func CanonicalName(name string) string {
	if renamed, ok := legacyNames[name]; ok {
		return renamed
	}
	return name
}

// ParameterNames returns the column names in storage order.
func ParameterNames() []string {
	names := make([]string, len(Parameters))
	for i, p := range Parameters {
		names[i] = p.Name
	}
	return names
}

// Get returns the parameter's value on o, or nil when unset.
func (p Parameter) Get(o *Observation) *float64 {
	return *p.field(o)
}

// Set stores v on o. A nil v clears the value.
func (p Parameter) Set(o *Observation, v *float64) {
	*p.field(o) = v
}

// Field returns the address of the parameter's field on o, for scanning.
func (p Parameter) Field(o *Observation) **float64 {
	return p.field(o)
}
