package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// inferColumnType inspects every non-empty value in column idx and returns
// the narrowest PostgreSQL type that holds all of them. Empty values are
// treated as NULL and ignored. A column with no non-empty values, or with
// values of mixed kinds, degrades to text.
func inferColumnType(rows [][]string, idx int) stagehand.ColumnType {
	sawValue := false
	isBigint := true
	isNumeric := true
	isBoolean := true
	isDate := true
	isTimestamp := true

	for _, row := range rows {
		v := strings.TrimSpace(row[idx])
		if v == "" {
			continue
		}
		sawValue = true

		if isBigint && !isInt(v) {
			isBigint = false
		}
		if isNumeric && !isFloat(v) {
			isNumeric = false
		}
		if isBoolean && !isBool(v) {
			isBoolean = false
		}
		if isDate && !isLayout(v, "2006-01-02") {
			isDate = false
		}
		if isTimestamp && !isTimestampValue(v) {
			isTimestamp = false
		}

		if !isBigint && !isNumeric && !isBoolean && !isDate && !isTimestamp {
			return stagehand.ColumnText
		}
	}

	if !sawValue {
		return stagehand.ColumnText
	}

	// Order matters: bigint before numeric (integers also parse as floats),
	// date before timestamp (dates also parse as midnight timestamps).
	switch {
	case isBoolean:
		return stagehand.ColumnBoolean
	case isBigint:
		return stagehand.ColumnBigint
	case isNumeric:
		return stagehand.ColumnNumeric
	case isDate:
		return stagehand.ColumnDate
	case isTimestamp:
		return stagehand.ColumnTimestamp
	default:
		return stagehand.ColumnText
	}
}

func isInt(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func isBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "t", "f":
		return true
	default:
		return false
	}
}

func isLayout(v, layout string) bool {
	_, err := time.Parse(layout, v)
	return err == nil
}

func isTimestampValue(v string) bool {
	return isLayout(v, "2006-01-02 15:04:05") ||
		isLayout(v, time.RFC3339) ||
		isLayout(v, "2006-01-02T15:04:05")
}
