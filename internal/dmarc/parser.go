package dmarc

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// recordTag closes a record and emits it
const recordTag = "record"

// fieldSetter stores the trimmed text of a leaf element into the record
type fieldSetter func(r *AuthenticationRecord, text string) error

// fieldSetters maps leaf element names to record fields. The parser only
// tracks the most recently opened element and ignores the element hierarchy.
// This works as long as no two field bearing leaves share a name and leaves
// do not contain other field bearing elements.
var fieldSetters = map[string]fieldSetter{
	"org_name": func(r *AuthenticationRecord, text string) error {
		r.OrgName = text
		return nil
	},
	"begin": func(r *AuthenticationRecord, text string) error {
		return parseUint32("date_range_begin", text, &r.DateRangeBegin)
	},
	"end": func(r *AuthenticationRecord, text string) error {
		return parseUint32("date_range_end", text, &r.DateRangeEnd)
	},
	"header_from": func(r *AuthenticationRecord, text string) error {
		r.HeaderFrom = text
		return nil
	},
	"source_ip": func(r *AuthenticationRecord, text string) error {
		ip, err := netip.ParseAddr(text)
		if err != nil {
			return &FieldCoercionError{Field: "source_ip", Text: text, Err: err}
		}
		r.SourceIP = ip
		return nil
	},
	"count": func(r *AuthenticationRecord, text string) error {
		return parseUint32("message_count", text, &r.MessageCount)
	},
	"dkim_result": func(r *AuthenticationRecord, text string) error {
		r.DkimAligned = text == "pass"
		return nil
	},
	"dkim_domain": func(r *AuthenticationRecord, text string) error {
		r.DkimDomain = text
		return nil
	},
	"spf_result": func(r *AuthenticationRecord, text string) error {
		r.SpfAligned = text == "pass"
		return nil
	},
	"spf_message": func(r *AuthenticationRecord, text string) error {
		r.SpfDomain = text
		return nil
	},
}

func parseUint32(field, text string, target *uint32) error {
	v, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return &FieldCoercionError{Field: field, Text: text, Err: err}
	}
	*target = uint32(v)
	return nil
}

// Parse parses a DMARC aggregate report and returns one AuthenticationRecord
// per <record> element in document order.
func Parse(ctx context.Context, xmlText string) ([]AuthenticationRecord, error) {
	return ParseReader(ctx, strings.NewReader(xmlText))
}

// ParseReader is like Parse but reads the document from r.
// On error no records are returned.
func ParseReader(ctx context.Context, r io.Reader) ([]AuthenticationRecord, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true
	// reports are not always utf-8
	decoder.CharsetReader = charset.NewReaderLabel

	records := []AuthenticationRecord{}
	current := NewAuthenticationRecord()
	currentElement := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, &MalformedXMLError{Offset: decoder.InputOffset(), Err: err}
		}

		switch t := token.(type) {
		case xml.StartElement:
			currentElement = t.Name.Local
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			setter, ok := fieldSetters[currentElement]
			if !ok {
				continue
			}
			if err := setter(&current, text); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == recordTag {
				records = append(records, current)
				current = NewAuthenticationRecord()
			}
		}
	}

	return records, nil
}
