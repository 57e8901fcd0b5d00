package market

import (
	"strings"
	"testing"
	"time"
)

// TestReadCSVWithHeader tests header skipping and field parsing
func TestReadCSVWithHeader(t *testing.T) {
	data := `time,open,high,low,close,volume
1704153600,42000.5,42100,41900,42050.25,120.5
1704157200,42050.25,42500,42000,42400,98.2
`
	candles, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to read csv: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}

	c := candles[0]
	if c.Index != 0 {
		t.Errorf("Expected reindexed candle, got index %d", c.Index)
	}
	if !c.OpenTime.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected open time %v", c.OpenTime)
	}
	if c.Open != 42000.5 || c.High != 42100 || c.Low != 41900 || c.Close != 42050.25 {
		t.Errorf("Unexpected ohlc %f/%f/%f/%f", c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume != 120.5 {
		t.Errorf("Expected volume 120.5, got %f", c.Volume)
	}
}

// TestReadCSVRFC3339 tests the alternate timestamp format without a
// header
func TestReadCSVRFC3339(t *testing.T) {
	data := "2024-01-02T00:00:00Z,100,101,99,100.5,10\n"

	candles, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to read csv: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("Expected 1 candle, got %d", len(candles))
	}
	if candles[0].OpenTime.Hour() != 0 || candles[0].OpenTime.Day() != 2 {
		t.Errorf("Unexpected open time %v", candles[0].OpenTime)
	}
}

// TestReadCSVMissingVolume tests the optional volume column
func TestReadCSVMissingVolume(t *testing.T) {
	data := "1704153600,100,101,99,100.5\n"

	candles, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to read csv: %v", err)
	}
	if candles[0].Volume != 0 {
		t.Errorf("Expected zero volume, got %f", candles[0].Volume)
	}
}

// TestReadCSVBadRow tests the error path for malformed data
func TestReadCSVBadRow(t *testing.T) {
	data := "1704153600,100,oops,99,100.5,10\n"

	if _, err := ReadCSV(strings.NewReader(data)); err == nil {
		t.Error("Expected error for malformed high column")
	}
}

// TestSessionContains tests UTC window membership
func TestSessionContains(t *testing.T) {
	london := SessionWindow{Name: "london", StartHour: 7, EndHour: 10}

	tests := []struct {
		hour     int
		expected bool
	}{
		{6, false},
		{7, true},
		{9, true},
		{10, false}, // end exclusive
	}
	for _, tt := range tests {
		ts := time.Date(2024, 1, 2, tt.hour, 30, 0, 0, time.UTC)
		if got := london.Contains(ts); got != tt.expected {
			t.Errorf("hour %d: expected %v, got %v", tt.hour, got, tt.expected)
		}
	}
}
