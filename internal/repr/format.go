package repr

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TextFormat selects a wire encoding.
type TextFormat string

const (
	ProtobufTextFormat TextFormat = "ProtobufTextFormat"
	JSON               TextFormat = "Json"
)

// ParseTextFormat accepts the canonical names case-insensitively, plus the
// short aliases "txtpb" and "json".
func ParseTextFormat(s string) (TextFormat, error) {
	switch strings.ToLower(s) {
	case "protobuftextformat", "txtpb", "textproto":
		return ProtobufTextFormat, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("unknown text format %q (want ProtobufTextFormat or Json)", s)
}

// FormatForPath guesses the encoding from a file extension.
// Anything other than .json is treated as protobuf text format.
func FormatForPath(path string) TextFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return ProtobufTextFormat
}
