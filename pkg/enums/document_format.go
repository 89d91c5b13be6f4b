package enums

import (
	"fmt"
	"strings"
)

// DocumentFormat selects one of the interchangeable wire renderings.
type DocumentFormat string

const (
	DocumentFormatCIMXML  DocumentFormat = "cim_xml"
	DocumentFormatCIMJSON DocumentFormat = "cim_json"
	DocumentFormatEbix    DocumentFormat = "ebix"
)

var validDocumentFormats = []DocumentFormat{
	DocumentFormatCIMXML,
	DocumentFormatCIMJSON,
	DocumentFormatEbix,
}

// String implements fmt.Stringer.
func (f DocumentFormat) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f DocumentFormat) IsValid() bool {
	for _, candidate := range validDocumentFormats {
		if candidate == f {
			return true
		}
	}
	return false
}

// ContentType returns the HTTP content type served for the format.
func (f DocumentFormat) ContentType() string {
	switch f {
	case DocumentFormatCIMJSON:
		return "application/json"
	case DocumentFormatCIMXML:
		return "application/xml"
	case DocumentFormatEbix:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// ParseDocumentFormat converts raw input into a DocumentFormat.
func ParseDocumentFormat(value string) (DocumentFormat, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDocumentFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document format %q", value)
}
