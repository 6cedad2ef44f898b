package domain

import "time"

// NormalizedRecord is the folded set of readings of one station for one
// timestep, keyed by decoder parameter name.
type NormalizedRecord struct {
	StationID  string
	Time       time.Time
	Properties map[string]float64
}

// NormalizeStats counts what Normalize saw.
type NormalizeStats struct {
	Items          int
	WithoutFeature int
	WithoutStation int
	NonNumeric     int
	OffTimestep    int
}

// Normalize folds decoded items into one record per station, tagged with
// timestep rather than each item's own date. Records follow the order in
// which stations first appear; within a station a later reading of a
// parameter replaces an earlier one.
//
// Items without a feature are skipped and never create a record. A feature
// whose value is not numeric still registers its station.
func Normalize(collections []Collection, timestep time.Time) ([]NormalizedRecord, NormalizeStats) {
	timestep = timestep.UTC()

	var (
		stats   NormalizeStats
		order   []string
		buckets = make(map[string]map[string]float64)
	)

	for _, coll := range collections {
		for _, item := range coll {
			stats.Items++
			if item.Feature == nil {
				stats.WithoutFeature++
				continue
			}
			if at, err := item.ObservedAt(); err == nil && !at.Equal(timestep) {
				stats.OffTimestep++
			}

			props := item.Feature.Properties
			if props.StationID == "" {
				stats.WithoutStation++
				continue
			}

			bucket, ok := buckets[props.StationID]
			if !ok {
				bucket = make(map[string]float64)
				buckets[props.StationID] = bucket
				order = append(order, props.StationID)
			}

			if props.Name == "" {
				stats.NonNumeric++
				continue
			}
			v, ok := props.NumericValue()
			if !ok {
				stats.NonNumeric++
				continue
			}
			bucket[props.Name] = v
		}
	}

	records := make([]NormalizedRecord, 0, len(order))
	for _, id := range order {
		records = append(records, NormalizedRecord{
			StationID:  id,
			Time:       timestep,
			Properties: buckets[id],
		})
	}
	return records, stats
}
