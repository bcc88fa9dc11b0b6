package api

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/uniqline/pkg/dedup"
	"github.com/hazyhaar/uniqline/pkg/kit"
	"github.com/hazyhaar/uniqline/pkg/source"
)

// RegisterMCPTools registers the uniqline MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps *Endpoints) {
	registerDedup(srv, eps.Dedup)
	registerNormalize(srv, "normalize_number", "Rewrite a number written with '.' and ',' separators (e.g. 1.234,56 or 1,234.56) to canonical decimal form.", eps.NormalizeNumber)
	registerNormalize(srv, "normalize_date", "Rewrite a day/month/year date (e.g. 1 /1/ 2013) to zero-padded DD/MM/YYYY.", eps.NormalizeDate)
	registerValidate(srv, eps.Validate)
}

// dedupFlags maps boolean tool arguments to options.
var dedupFlags = []struct {
	name, desc string
	set        func(*dedup.Options, bool)
}{
	{"ignore_case", "Compare lines case-insensitively", func(o *dedup.Options, v bool) { o.IgnoreCase = v }},
	{"strip_accents", "Ignore accents when comparing", func(o *dedup.Options, v bool) { o.StripAccents = v }},
	{"trim", "Ignore leading and trailing whitespace", func(o *dedup.Options, v bool) { o.TrimLine = v }},
	{"collapse_whitespace", "Treat runs of spaces as one space", func(o *dedup.Options, v bool) { o.CollapseWhitespace = v }},
	{"remove_empty", "Do not output empty lines", func(o *dedup.Options, v bool) { o.RemoveEmptyLines = v }},
	{"only_repeated", "Output only repeated occurrences", func(o *dedup.Options, v bool) { o.OnlyPrintRepeated = v }},
	{"print_normalized", "Output normalized lines instead of the originals", func(o *dedup.Options, v bool) { o.PrintNormalized = v }},
	{"csv", "Treat lines as CSV rows and check column counts", func(o *dedup.Options, v bool) { o.CSVMode = v }},
	{"format_date", "Normalize date fields (requires csv)", func(o *dedup.Options, v bool) { o.FormatDate = v }},
	{"format_key", "Validate and compact 44-digit fiscal keys (requires csv)", func(o *dedup.Options, v bool) { o.FormatKey = v }},
	{"format_number", "Normalize number fields (requires csv)", func(o *dedup.Options, v bool) { o.FormatNumber = v }},
}

func registerDedup(srv *server.MCPServer, ep kit.Endpoint) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Remove repeated lines from a text while keeping the first occurrence of each, in input order."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Newline separated input lines")),
		mcp.WithString("delimiter", mcp.Description("CSV input delimiter, a single character (default ;)")),
		mcp.WithString("hash", mcp.Description("Fingerprint algorithm: xxhash, sha256, sha512 or blake3")),
	}
	for _, f := range dedupFlags {
		opts = append(opts, mcp.WithBoolean(f.name, mcp.Description(f.desc)))
	}
	tool := mcp.NewTool("dedup_lines", opts...)

	kit.RegisterMCPTool(srv, tool, ep, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		lines, err := source.SplitLines(text)
		if err != nil {
			return nil, err
		}

		o := dedup.DefaultOptions()
		for _, f := range dedupFlags {
			if v, ok := args[f.name].(bool); ok {
				f.set(&o, v)
			}
		}
		if v, _ := args["delimiter"].(string); v != "" {
			o.CSVDelimiter = v
		}
		if v, _ := args["hash"].(string); v != "" {
			if o.Hash, err = dedup.ParseAlgorithm(v); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &dedupReq{Lines: lines, Options: o}}, nil
	})
}

func registerNormalize(srv *server.MCPServer, name, desc string, ep kit.Endpoint) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(desc),
		mcp.WithString("value", mcp.Required(), mcp.Description("The text to normalize")),
	)
	kit.RegisterMCPTool(srv, tool, ep, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		value, _ := req.GetArguments()["value"].(string)
		return &kit.MCPDecodeResult{Request: &normalizeReq{Value: value}}, nil
	})
}

func registerValidate(srv *server.MCPServer, ep kit.Endpoint) {
	tool := mcp.NewTool("validate_identifier",
		mcp.WithDescription("Check the modulo 11 check digits of a 14-digit CNPJ or a 44-digit NF-e access key. Dots, slashes, dashes and spaces are ignored."),
		mcp.WithString("digits", mcp.Required(), mcp.Description("The identifier to check")),
	)
	kit.RegisterMCPTool(srv, tool, ep, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		digits, _ := req.GetArguments()["digits"].(string)
		if digits == "" {
			return nil, fmt.Errorf("missing digits")
		}
		return &kit.MCPDecodeResult{Request: &validateReq{Digits: digits}}, nil
	})
}
