package simulation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvHeader is the required column order for a train-batch file (spec.md
// §6).
var csvHeader = []string{"train_id", "train_code", "train_type_id", "current_section_id", "num_wagons", "desired_stop_id"}

// CSVSpawnRow is one decoded row of a train-batch file, paired with the
// TrainType catalog lookup needed to build a SpawnCommand.
type CSVSpawnRow struct {
	TrainID      TrainID
	TrainCode    string
	TrainTypeID  int
	EntrySection SectionID
	NumWagons    int
	DesiredStop  StopID
}

// ParseCSVBatch decodes a bulk-spawn CSV stream per spec.md §6's
// train_id,train_code,train_type_id,current_section_id,num_wagons,desired_stop_id
// header. desired_stop_id is optional; an empty value means transit only.
func ParseCSVBatch(r io.Reader) ([]CSVSpawnRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if !headerMatches(header, csvHeader) {
		return nil, fmt.Errorf("unexpected CSV header: got %v, want %v", header, csvHeader)
	}

	var rows []CSVSpawnRow
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", lineNum, err)
		}
		lineNum++
		row, err := parseCSVRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func parseCSVRow(record []string) (CSVSpawnRow, error) {
	if len(record) != len(csvHeader) {
		return CSVSpawnRow{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}
	trainID, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return CSVSpawnRow{}, fmt.Errorf("invalid train_id %q: %w", record[0], err)
	}
	trainTypeID, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return CSVSpawnRow{}, fmt.Errorf("invalid train_type_id %q: %w", record[2], err)
	}
	section, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return CSVSpawnRow{}, fmt.Errorf("invalid current_section_id %q: %w", record[3], err)
	}
	numWagons, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return CSVSpawnRow{}, fmt.Errorf("invalid num_wagons %q: %w", record[4], err)
	}
	return CSVSpawnRow{
		TrainID:      TrainID(trainID),
		TrainCode:    strings.TrimSpace(record[1]),
		TrainTypeID:  trainTypeID,
		EntrySection: SectionID(section),
		NumWagons:    numWagons,
		DesiredStop:  StopID(strings.TrimSpace(record[5])),
	}, nil
}
