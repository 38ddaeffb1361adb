package catalog

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

//go:embed data/catalog.csv
var defaultCatalogCSV string

var csvHeader = []string{
	"id", "canonical_name", "volume_factor", "requires_two_person",
	"is_fragile", "requires_disassembly", "base_price_hint", "synonyms",
}

// Default returns the catalog compiled into the binary
func Default(opts ...Option) (*Catalog, error) {
	return Load(strings.NewReader(defaultCatalogCSV), opts...)
}

// LoadFile loads a catalog from a CSV file
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load parses catalog CSV. The first row must be the header; synonyms are
// pipe separated. Rows starting with # are comments.
func Load(r io.Reader, opts ...Option) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	for i, want := range csvHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, fmt.Errorf("catalog header column %d: expected %q, got %q", i, want, header[i])
		}
	}

	var items []Item
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		line, _ := reader.FieldPos(0)

		item, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		items = append(items, item)
	}
	return New(items, opts...)
}

func parseRecord(record []string) (Item, error) {
	volume, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return Item{}, fmt.Errorf("volume_factor: %w", err)
	}
	twoPerson, err := parseFlag(record[3])
	if err != nil {
		return Item{}, fmt.Errorf("requires_two_person: %w", err)
	}
	fragile, err := parseFlag(record[4])
	if err != nil {
		return Item{}, fmt.Errorf("is_fragile: %w", err)
	}
	disassembly, err := parseFlag(record[5])
	if err != nil {
		return Item{}, fmt.Errorf("requires_disassembly: %w", err)
	}
	hint := decimal.Zero
	if s := strings.TrimSpace(record[6]); s != "" {
		if hint, err = decimal.NewFromString(s); err != nil {
			return Item{}, fmt.Errorf("base_price_hint: %w", err)
		}
	}

	var synonyms []string
	for _, s := range strings.Split(record[7], "|") {
		if s = strings.TrimSpace(s); s != "" {
			synonyms = append(synonyms, s)
		}
	}

	return Item{
		ID:                  strings.TrimSpace(record[0]),
		CanonicalName:       strings.TrimSpace(record[1]),
		VolumeFactor:        volume,
		RequiresTwoPerson:   twoPerson,
		IsFragile:           fragile,
		RequiresDisassembly: disassembly,
		BasePriceHint:       hint,
		Synonyms:            synonyms,
	}, nil
}

func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}
