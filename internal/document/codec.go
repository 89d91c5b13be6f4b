package document

import (
	"fmt"

	"github.com/voltbridge/markethub/pkg/enums"
)

// timeLayout is the wire timestamp format shared by all three codecs.
const timeLayout = "2006-01-02T15:04:05Z"

// Codec renders an abstract record set into one wire format and reads it
// back. All codecs must agree field for field: marshaling with one and
// unmarshaling with the same must reproduce the input exactly.
type Codec interface {
	Format() enums.DocumentFormat
	Marshal(header Header, records []MarketActivityRecord) ([]byte, error)
	Unmarshal(data []byte) (*Header, []MarketActivityRecord, error)
}

// Registry holds one codec per supported format.
type Registry struct {
	codecs map[enums.DocumentFormat]Codec
}

// NewRegistry wires up the three standard codecs.
func NewRegistry() *Registry {
	registry := &Registry{codecs: map[enums.DocumentFormat]Codec{}}
	registry.register(NewCIMXMLCodec())
	registry.register(NewCIMJSONCodec())
	registry.register(NewEbixCodec())
	return registry
}

func (r *Registry) register(codec Codec) {
	r.codecs[codec.Format()] = codec
}

// Codec returns the codec for the given format.
func (r *Registry) Codec(format enums.DocumentFormat) (Codec, error) {
	codec, ok := r.codecs[format]
	if !ok {
		return nil, fmt.Errorf("no codec registered for format %q", format)
	}
	return codec, nil
}

// Formats lists the registered formats.
func (r *Registry) Formats() []enums.DocumentFormat {
	formats := make([]enums.DocumentFormat, 0, len(r.codecs))
	for format := range r.codecs {
		formats = append(formats, format)
	}
	return formats
}
