package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"math/bits"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxFiles bounds the number of inputs so a file set fits in one uint mask.
const maxFiles = bits.UintSize

// record is one line of a catalog file.
type record struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

func parseRecord(line string) (record, error) {
	var r record
	if err := json.Unmarshal([]byte(line), &r); err != nil {
		return record{}, errors.Wrap(err, "decode record")
	}
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return record{}, errors.New("record without code")
	}
	return r, nil
}

// findDuplicateCodes returns the product codes that appear in two or more of
// files. Each file is first summarized in a bloom filter; a second pass
// confirms candidates by file membership so bloom false positives drop out.
func findDuplicateCodes(ctx context.Context, files []string, capacity uint, fpr float64) (map[string]struct{}, error) {
	if len(files) > maxFiles {
		return nil, errors.Errorf("at most %d files per import, got %d", maxFiles, len(files))
	}

	filters := make([]*bloom.BloomFilter, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(capacity, fpr)
			n, err := streamCodes(gctx, path, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "index %s", path)
			}
			slog.Info("pass 1 complete", slog.String("file", path), slog.Int("codes", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	masks := make([]map[string]uint, len(files))
	g, gctx = errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			bit := uint(1) << uint(i)
			_, err := streamCodes(gctx, path, func(code string) {
				for j, f := range filters {
					if j != i && f.TestString(code) {
						candidates[code] |= bit
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			slog.Info("pass 2 complete", slog.String("file", path), slog.Int("candidates", len(candidates)))
			masks[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, m := range masks {
		for code, mask := range m {
			merged[code] |= mask
		}
	}
	dups := make(map[string]struct{})
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			dups[code] = struct{}{}
		}
	}
	return dups, nil
}

// streamCodes calls fn with the code of every parsable record in path and
// returns how many it saw.
func streamCodes(ctx context.Context, path string, fn func(code string)) (int, error) {
	n := 0
	err := streamRecords(ctx, path, func(r record) error {
		n++
		fn(r.Code)
		return nil
	}, nil)
	return n, err
}

// streamRecords decodes a gzipped JSON-lines file. Lines that do not parse
// are passed to bad, or skipped when bad is nil.
func streamRecords(ctx context.Context, path string, fn func(record) error, bad func(lineNo int, err error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, err := parseRecord(line)
		if err != nil {
			if bad != nil {
				bad(lineNo, err)
			}
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
