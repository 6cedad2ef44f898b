// Package domain models WMO SYNOP surface observations as they flow from
// BUFR reports into the observation store.
//
// # Data Source
//
// The data provider publishes one BUFR file per observation timestep into a
// shared datasets directory. Files follow the naming convention
//
//	SYNA0001_<YYYYMMDDHHmm>_180.DAT  →  e.g. SYNA0001_202306231500_180.DAT
//
// Files arrive in BUFR edition 3 and are converted to edition 4 before
// decoding (see the bufr adapter).
//
// # Timesteps
//
// SYNOP reports are synoptic: they are issued every 3 hours at 00, 03, 06, 09,
// 12, 15, 18 and 21 UTC, at minute and second zero. [NextTimestep] returns the
// first such instant strictly after a reference time. All timesteps are
// handled in UTC.
//
// # Decoder Output
//
// The external decoder emits a JSON array of collections. Each collection is
// an object of items keyed by a feature id; each item looks like
//
//	{
//	  "geojson": {
//	    "type": "Feature",
//	    "geometry": {...},
//	    "properties": {
//	      "wigos_station_identifier": "0-20000-0-64500",
//	      "name": "air_temperature",
//	      "value": 27.4,
//	      ...
//	    }
//	  },
//	  "_meta": {"data_date": "2023-06-23T12:00:00Z/2023-06-23T15:00:00Z", ...},
//	  "_headers": {...}
//	}
//
// One item carries exactly one parameter of one station. "data_date" is either
// an instant or a "start/end" period; periods collapse to their end instant.
// Keys other than "geojson" and "_meta" are bookkeeping and are ignored.
// Items are folded per station into a [NormalizedRecord] by [Normalize].
//
// # Parameters
//
// Observation columns are enumerated in [Parameters]. Decoder parameter names
// map onto columns one-to-one, except for two legacy names whose column names
// cannot start with a digit:
//
//	24hour_pressure_change  →  pressure_change_24hour
//	3hour_pressure_change   →  pressure_change_3hour
//
// Names outside the enumeration are dropped when an [Observation] is built.
//
// # Station Identity
//
// Stations are keyed by their primary WIGOS identifier
// (e.g. "0-20000-0-64500"). A station may also be known by aliases (older
// WMO-style WIGOS ids); decoded reports may use either.
package domain
