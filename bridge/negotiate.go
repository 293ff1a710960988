package bridge

import (
	"mime"
	"strings"

	"github.com/jdbcx/jdbcx-core/compress"
	"github.com/jdbcx/jdbcx-core/serialize"
)

// defaultFormat/defaultCodec are used when nothing in the request
// names a preference, matching spec.md §6's implicit fallback.
const (
	defaultFormat = serialize.CSV
	defaultCodec  = compress.None
)

var formatMIME = map[serialize.Format]string{
	serialize.CSV:         "text/csv",
	serialize.TSV:         "text/tab-separated-values",
	serialize.JSONL:       "application/jsonl",
	serialize.NDJSON:      "application/x-ndjson",
	serialize.VALUES:      "text/plain",
	serialize.AvroBinary:  "application/avro",
	serialize.AvroJSON:    "application/avro+json",
	serialize.BSON:        "application/bson",
	serialize.ArrowIPC:    "application/vnd.apache.arrow.file",
	serialize.ArrowStream: "application/vnd.apache.arrow.stream",
	serialize.Parquet:     "application/vnd.apache.parquet",
	serialize.TXT:         "text/plain",
	serialize.Binary:      "application/octet-stream",
}

var extToFormat = map[string]serialize.Format{
	"csv": serialize.CSV, "tsv": serialize.TSV, "jsonl": serialize.JSONL,
	"ndjson": serialize.NDJSON, "values": serialize.VALUES,
	"avro": serialize.AvroBinary, "avro_json": serialize.AvroJSON,
	"bson": serialize.BSON, "arrow": serialize.ArrowIPC,
	"arrow_stream": serialize.ArrowStream, "parquet": serialize.Parquet,
	"txt": serialize.TXT, "bin": serialize.Binary,
}

// FormatMIME returns the Content-Type to emit for f.
func FormatMIME(f serialize.Format) string {
	if m, ok := formatMIME[f]; ok {
		return m
	}
	return "application/octet-stream"
}

// NegotiateFormat resolves the output format from, in priority order:
// the path's .format suffix, the f query parameter, the Accept header,
// falling back to defaultFormat (spec.md §6 path conventions).
func NegotiateFormat(pathExt, param, accept string) serialize.Format {
	if f, ok := extToFormat[strings.ToLower(pathExt)]; ok {
		return f
	}
	if f, ok := extToFormat[strings.ToLower(param)]; ok {
		return f
	}
	for _, mt := range splitAccept(accept) {
		for f, m := range formatMIME {
			if m == mt {
				return f
			}
		}
	}
	return defaultFormat
}

// NegotiateCodec resolves compression the same way, from the path's
// .encoding suffix, the c query parameter, or Accept-Encoding.
func NegotiateCodec(reg *compress.Registry, pathExt, param, acceptEncoding string) compress.Codec {
	if pathExt != "" {
		if e, ok := reg.ByExtension("." + strings.ToLower(pathExt)); ok {
			return e.Codec
		}
	}
	if param != "" {
		if e, ok := reg.ByEncodingToken(strings.ToLower(param)); ok {
			return e.Codec
		}
	}
	for _, token := range splitAccept(acceptEncoding) {
		if e, ok := reg.ByEncodingToken(token); ok {
			return e.Codec
		}
	}
	return defaultCodec
}

func splitAccept(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(p))
		if err != nil {
			mt = strings.TrimSpace(strings.SplitN(p, ";", 2)[0])
		}
		out = append(out, mt)
	}
	return out
}
