package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"earningsSpreadBot/internal/domain"
)

// WriteBarsToCSV writes price bars as timestamp,open,high,low,close,volume.
func WriteBarsToCSV(bars []*domain.PriceBar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume"})

	for _, b := range bars {
		writer.Write([]string{
			b.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadBarsFromCSV reads price bars written by WriteBarsToCSV.
func ReadBarsFromCSV(filename string) ([]*domain.PriceBar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	var bars []*domain.PriceBar
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("%s line %d: expected 6 fields, got %d", filename, i+1, len(rec))
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filename, i+1, err)
		}
		vals := make([]float64, 5)
		for j := 0; j < 5; j++ {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", filename, i+1, err)
			}
			vals[j] = v
		}
		bars = append(bars, &domain.PriceBar{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return bars, nil
}

// ReadEventsFromCSV reads earnings events as ticker,report_date,timing with
// report_date formatted 2006-01-02 and timing one of bmo/amc/dmh.
func ReadEventsFromCSV(filename string) ([]*domain.EarningsEvent, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	var events []*domain.EarningsEvent
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 fields, got %d", filename, i+1, len(rec))
		}
		date, err := time.Parse("2006-01-02", rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filename, i+1, err)
		}
		timing := domain.EventTiming(rec[2])
		switch timing {
		case domain.BeforeMarketOpen, domain.AfterMarketClose, domain.DuringMarketHours:
		default:
			return nil, fmt.Errorf("%s line %d: unknown timing %q", filename, i+1, rec[2])
		}
		events = append(events, &domain.EarningsEvent{
			Ticker:     rec[0],
			ReportDate: date,
			Timing:     timing,
		})
	}
	return events, nil
}
