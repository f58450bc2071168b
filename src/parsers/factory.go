package parsers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/username/coinfolio/backend/src/parsers/bittrex"
	"github.com/username/coinfolio/backend/src/parsers/history"
	"github.com/username/coinfolio/backend/src/parsers/kraken"
	"github.com/username/coinfolio/backend/src/parsers/poloniex"
)

// ErrUnsupportedFormat is returned when a file's header matches no known
// exchange export format. The batch is rejected before any mapping runs.
var ErrUnsupportedFormat = errors.New("unsupported history format")

// GetParser returns the parser for an explicitly named source.
func GetParser(source string) (history.Parser, error) {
	switch source {
	case bittrex.Source:
		return bittrex.NewParser(), nil
	case kraken.Source:
		return kraken.NewParser(), nil
	case poloniex.Source:
		return poloniex.NewParser(), nil
	default:
		return nil, fmt.Errorf("%w: no parser for source %q", ErrUnsupportedFormat, source)
	}
}

// DetectParser picks a parser by matching the file's first line against
// the known header signatures, returning the parser and the source it
// belongs to. UTF-16 NUL bytes and a BOM, as produced by some Bittrex
// exports, must be stripped by the caller before matching.
func DetectParser(header string) (history.Parser, string, error) {
	header = strings.TrimSpace(header)
	for _, candidate := range []struct {
		headers []string
		source  string
	}{
		{bittrex.Headers, bittrex.Source},
		{kraken.Headers, kraken.Source},
		{poloniex.Headers, poloniex.Source},
	} {
		for _, known := range candidate.headers {
			if header == known {
				parser, err := GetParser(candidate.source)
				return parser, candidate.source, err
			}
		}
	}
	return nil, "", fmt.Errorf("%w: unrecognized header %q", ErrUnsupportedFormat, header)
}
