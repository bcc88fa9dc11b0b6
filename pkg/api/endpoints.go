package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/hazyhaar/uniqline/pkg/checkdigit"
	"github.com/hazyhaar/uniqline/pkg/dedup"
	"github.com/hazyhaar/uniqline/pkg/kit"
	"github.com/hazyhaar/uniqline/pkg/normalize"
	"github.com/hazyhaar/uniqline/pkg/structure"
)

// MaxLines bounds the lines accepted by one dedup request.
const MaxLines = 100_000

// Shared request/response types used by both HTTP and MCP transports.

type dedupReq struct {
	Lines   []string
	Options dedup.Options
}

type dedupResponse struct {
	Lines     []string           `json:"lines"`
	Stats     dedup.Stats        `json:"stats"`
	Algorithm dedup.Algorithm    `json:"algorithm"`
	CSV       *structure.Verdict `json:"csv,omitempty"`
}

type normalizeReq struct {
	Value string
}

type normalizeResponse struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Changed bool   `json:"changed"`
}

type validateReq struct {
	Digits string
}

type validateResponse struct {
	Digits string `json:"digits"`
	Kind   string `json:"kind"`
	Valid  bool   `json:"valid"`
}

// Identifier kinds reported by the validate endpoint.
const (
	KindRegistryNumber = "registry_number"
	KindFiscalKey      = "fiscal_key"
)

// Endpoints are the actions served over HTTP and MCP.
type Endpoints struct {
	Dedup           kit.Endpoint
	NormalizeNumber kit.Endpoint
	NormalizeDate   kit.Endpoint
	Validate        kit.Endpoint
}

// NewEndpoints builds the endpoints, each wrapped with request logging.
func NewEndpoints(logger *slog.Logger) *Endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoints{
		Dedup:           kit.Logging(logger, "dedup")(dedupEndpoint(logger)),
		NormalizeNumber: kit.Logging(logger, "normalize_number")(normalizeEndpoint(normalize.Number)),
		NormalizeDate:   kit.Logging(logger, "normalize_date")(normalizeEndpoint(normalize.Date)),
		Validate:        kit.Logging(logger, "validate")(validateEndpoint()),
	}
}

func dedupEndpoint(logger *slog.Logger) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*dedupReq)
		if len(req.Lines) > MaxLines {
			return nil, fmt.Errorf("%w: too many lines (max %d, got %d)", dedup.ErrInvalidOptions, MaxLines, len(req.Lines))
		}
		opts := clampOptions(req.Options)
		lines, rep, err := dedup.Lines(ctx, req.Lines, opts, logger.With("request_id", kit.GetRequestID(ctx)))
		if err != nil {
			return nil, err
		}
		if lines == nil {
			lines = []string{}
		}
		return dedupResponse{
			Lines:     lines,
			Stats:     rep.Stats,
			Algorithm: rep.Algorithm,
			CSV:       rep.CSV,
		}, nil
	}
}

// clampOptions bounds the resources a client can ask for. A request never
// holds more than MaxLines lines, and never uses more workers than CPUs.
func clampOptions(o dedup.Options) dedup.Options {
	o.ChunkSize = min(o.ChunkSize, MaxLines)
	o.Workers = min(o.Workers, runtime.GOMAXPROCS(0))
	return o
}

func normalizeEndpoint(fn normalize.Func) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*normalizeReq)
		out := fn(req.Value)
		return normalizeResponse{Input: req.Value, Output: out, Changed: out != req.Value}, nil
	}
}

var errNotIdentifier = errors.New("not a registry number or fiscal key")

// identifierPunctuation is the formatting commonly found in written
// registry numbers and keys, e.g. "11.222.333/0001-81".
var identifierPunctuation = strings.NewReplacer(".", "", "/", "", "-", "", " ", "")

func validateEndpoint() kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*validateReq)
		digits := identifierPunctuation.Replace(strings.TrimSpace(req.Digits))
		switch {
		case checkdigit.IsDigits(digits, checkdigit.RegistryLen):
			return validateResponse{Digits: digits, Kind: KindRegistryNumber, Valid: checkdigit.ValidRegistryNumber(digits)}, nil
		case checkdigit.IsDigits(digits, checkdigit.FiscalKeyLen):
			return validateResponse{Digits: digits, Kind: KindFiscalKey, Valid: checkdigit.ValidFiscalKey(digits)}, nil
		default:
			return nil, fmt.Errorf("%w: want %d or %d digits", errNotIdentifier, checkdigit.RegistryLen, checkdigit.FiscalKeyLen)
		}
	}
}
