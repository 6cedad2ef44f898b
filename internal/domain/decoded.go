package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Collection is one decoder collection: its items in emission order. The
// feature-id keys are not kept.
type Collection []DecodedItem

// UnmarshalJSON walks the object's members in document order so that
// last-write-wins folding follows the decoder's emission order.
func (c *Collection) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoded collection: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoded collection: expected object, got %v", tok)
	}

	var items Collection
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("decoded collection key: %w", err)
		}
		var item DecodedItem
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("decoded collection item: %w", err)
		}
		items = append(items, item)
	}
	*c = items
	return nil
}

// DecodedItem is one parameter reading of one station. Keys other than the
// feature and its metadata block are dropped while decoding.
type DecodedItem struct {
	Feature *Feature `json:"geojson"`
	Meta    ItemMeta `json:"_meta"`
}

// Feature is the GeoJSON payload of a decoded item.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   json.RawMessage   `json:"geometry,omitempty"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureProperties holds the reading itself. Value stays raw because the
// decoder emits null and textual values for some descriptors.
type FeatureProperties struct {
	StationID string          `json:"wigos_station_identifier"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
}

// NumericValue returns the reading as a number. Null, missing and non-numeric
// values report false.
func (p FeatureProperties) NumericValue() (float64, bool) {
	raw := bytes.TrimSpace(p.Value)
	if len(raw) == 0 || raw[0] == 'n' || raw[0] == '"' {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// ItemMeta is the decoder's metadata block.
type ItemMeta struct {
	DataDate string `json:"data_date"`
}

// ObservedAt returns the instant an item reports. A "start/end" period yields
// its end.
func (it DecodedItem) ObservedAt() (time.Time, error) {
	date := it.Meta.DataDate
	if i := strings.LastIndex(date, "/"); i >= 0 {
		date = date[i+1:]
	}
	return ParseTimestamp(date)
}
