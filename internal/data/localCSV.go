package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/pricing"
)

const dateLayout = "2006-01-02"

// localFileDataProvider implements Provider from CSV files in a directory:
//
//	<dir>/<SYM>_bars.csv   date,close
//	<dir>/<SYM>_chain.csv  type,strike,bid,ask,last,expiry
//
// Both files carry a header row. A missing file delegates to secondary.
type localFileDataProvider struct {
	dir       string
	secondary Provider
}

// NewLocalFileDataProvider convenience constructor.
func NewLocalFileDataProvider(dir string, secondary Provider) Provider {
	return &localFileDataProvider{dir: dir, secondary: secondary}
}

func (localFileDataProv *localFileDataProvider) Secondary() Provider {
	return localFileDataProv.secondary
}

func (localFileDataProv *localFileDataProvider) GetDailyBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	records, err := localFileDataProv.readCSV(underlying, "bars")
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debugf("no local bars for %s, delegating", underlying)
		return delegateBars(ctx, localFileDataProv.secondary, underlying, fromDate, toDate)
	}
	if err != nil {
		return nil, err
	}

	from := truncateDay(fromDate)
	to := truncateDay(toDate)

	var out []Bar
	for i, row := range records {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s bars line %d: expected 2 columns, got %d", underlying, i+2, len(row))
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%s bars line %d: %w", underlying, i+2, err)
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		close, err := parsePrice("close", row[1])
		if err != nil {
			return nil, fmt.Errorf("%s bars line %d: %w", underlying, i+2, err)
		}
		out = append(out, Bar{Date: date, Open: close, High: close, Low: close, Close: close})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (localFileDataProv *localFileDataProvider) GetOptionChain(ctx context.Context, underlying string, asOf time.Time) ([]OptionQuote, error) {
	records, err := localFileDataProv.readCSV(underlying, "chain")
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debugf("no local chain for %s, delegating", underlying)
		return delegateChain(ctx, localFileDataProv.secondary, underlying, asOf)
	}
	if err != nil {
		return nil, err
	}

	out := make([]OptionQuote, 0, len(records))
	for i, row := range records {
		q, err := parseChainRow(underlying, row)
		if err != nil {
			return nil, fmt.Errorf("%s chain line %d: %w", underlying, i+2, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// readCSV returns the data rows of <dir>/<SYM>_<kind>.csv without the header.
func (localFileDataProv *localFileDataProvider) readCSV(underlying, kind string) ([][]string, error) {
	name := fmt.Sprintf("%s_%s.csv", strings.ToUpper(underlying), kind)
	f, err := os.Open(filepath.Join(localFileDataProv.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return records, nil
}

func parseChainRow(underlying string, row []string) (OptionQuote, error) {
	if len(row) < 6 {
		return OptionQuote{}, fmt.Errorf("expected 6 columns, got %d", len(row))
	}
	typ, err := pricing.ParseOptionType(row[0])
	if err != nil {
		return OptionQuote{}, err
	}
	columns := [4]string{"strike", "bid", "ask", "last"}
	var nums [4]float64
	for i, col := range columns {
		if strings.TrimSpace(row[i+1]) == "" {
			continue
		}
		if nums[i], err = parsePrice(col, row[i+1]); err != nil {
			return OptionQuote{}, err
		}
	}
	expiry, err := time.Parse(dateLayout, strings.TrimSpace(row[5]))
	if err != nil {
		return OptionQuote{}, err
	}
	return OptionQuote{
		Underlying: strings.ToUpper(underlying),
		Type:       typ,
		Strike:     nums[0],
		Bid:        nums[1],
		Ask:        nums[2],
		Last:       nums[3],
		Expiry:     expiry,
	}, nil
}

// parsePrice parses a finite, non-negative number.
func parsePrice(column, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %s must be finite and non-negative, got %q", pricing.ErrInvalidArgument, column, s)
	}
	return v, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
