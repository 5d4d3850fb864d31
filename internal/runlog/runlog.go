// Package runlog keeps an append-only CSV record of model fits.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileName is the name of the log file inside the log directory.
const FileName = "log_likelihood.txt"

// TimeLayout is the layout of the datetime column.
const TimeLayout = "2006-01-02_15-04-05"

// Header is the first line of every log file.
var Header = []string{"img", "K", "T", "log_lik", "datetime", "runtime"}

// Record is one fit of a mixture model to an image.
type Record struct {
	Img    string  `json:"img"`
	K      int     `json:"k"`
	T      int     `json:"t"`
	LogLik float64 `json:"log_lik"`

	// ExpectedLogLik is reported when the fit computed it. It is logged but
	// not stored, so the file keeps its six columns.
	ExpectedLogLik *float64 `json:"expected_log_lik,omitempty"`

	Time    time.Time     `json:"datetime"`
	Runtime time.Duration `json:"runtime"`
}

func (r Record) fields() []string {
	return []string{
		r.Img,
		strconv.Itoa(r.K),
		strconv.Itoa(r.T),
		strconv.FormatFloat(r.LogLik, 'g', -1, 64),
		r.Time.Format(TimeLayout),
		strconv.FormatFloat(r.Runtime.Seconds(), 'g', -1, 64),
	}
}

// Append writes rec to the log file in dir, creating the directory and file
// as needed. The header is written only when the file is empty.
// Returns the path of the log file.
func Append(dir string, rec Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, FileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat log file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(rec.fields()); err != nil {
		return "", fmt.Errorf("failed to write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write record: %w", err)
	}

	log.Printf("The data log likelihood is: %g", rec.LogLik)
	if rec.ExpectedLogLik != nil {
		log.Printf("The data expected log likelihood is: %g", *rec.ExpectedLogLik)
	}
	return path, nil
}

// Read parses every record of the log file in dir. A missing file yields no
// records.
func Read(dir string) ([]Record, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var out []Record
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		if line == 1 && row[0] == Header[0] {
			continue
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRecord(row []string) (Record, error) {
	rec := Record{Img: row[0]}
	var err error
	if rec.K, err = strconv.Atoi(row[1]); err != nil {
		return rec, fmt.Errorf("invalid K: %w", err)
	}
	if rec.T, err = strconv.Atoi(row[2]); err != nil {
		return rec, fmt.Errorf("invalid T: %w", err)
	}
	if rec.LogLik, err = strconv.ParseFloat(row[3], 64); err != nil {
		return rec, fmt.Errorf("invalid log_lik: %w", err)
	}
	if rec.Time, err = time.ParseInLocation(TimeLayout, row[4], time.Local); err != nil {
		return rec, fmt.Errorf("invalid datetime: %w", err)
	}
	secs, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return rec, fmt.Errorf("invalid runtime: %w", err)
	}
	rec.Runtime = time.Duration(secs * float64(time.Second))
	return rec, nil
}
