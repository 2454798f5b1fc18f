package dmarc

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"time"
)

// Resolver returns the reverse DNS names of an ip address
type Resolver interface {
	CachedDNSLookup(ip netip.Addr) ([]string, error)
}

type CustomTime time.Time

func (t CustomTime) MarshalJSON() ([]byte, error) {
	stamp := fmt.Sprintf("\"%s\"", time.Time(t).Format(time.RFC822Z))
	return []byte(stamp), nil
}

func (t CustomTime) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	stamp := time.Time(t).Format(time.RFC822Z)
	return e.EncodeElement(stamp, start)
}

// Entry is the serialized form of an AuthenticationRecord
type Entry struct {
	XMLName         xml.Name    `xml:"dmarc_record" json:"-"`                                    // for xml serialisation
	EventID         string      `xml:"event_id,omitempty" json:"event_id,omitempty"`             // SIEM specific
	EventCategory   string      `xml:"event_category,omitempty" json:"event_category,omitempty"` // SIEM specific
	Filename        string      `xml:"filename" json:"filename"`
	OrgName         string      `xml:"org_name" json:"org_name"`
	DateBegin       uint32      `xml:"date_begin" json:"date_begin"`
	DateEnd         uint32      `xml:"date_end" json:"date_end"`
	DateBeginParsed CustomTime  `xml:"date_begin_parsed" json:"date_begin_parsed"`
	DateEndParsed   CustomTime  `xml:"date_end_parsed" json:"date_end_parsed"`
	HeaderFrom      string      `xml:"header_from" json:"header_from"`
	SourceIP        string      `xml:"source_ip" json:"source_ip"`
	SourceDNS       []string    `xml:"source_dns>dns" json:"source_dns"`
	SourceDNSString string      `xml:"source_dns_string" json:"source_dns_string"`
	Count           uint32      `xml:"count" json:"count"`
	ResultDkim      EntryResult `xml:"result_dkim" json:"result_dkim"`
	ResultSpf       EntryResult `xml:"result_spf" json:"result_spf"`
}

type EntryResult struct {
	Aligned bool   `xml:"aligned" json:"aligned"`
	Domain  string `xml:"domain" json:"domain"`
}

// EntryOptions control the conversion of records into entries
type EntryOptions struct {
	Filename      string
	Resolver      Resolver
	EventID       string
	EventCategory string
}

func ConvertToJSON(records []AuthenticationRecord, opts EntryOptions) ([][]byte, error) {
	entries := convertToEntries(records, opts)

	ret := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		jsonString, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("could not marshal JSON: %w", err)
		}
		ret = append(ret, jsonString)
	}
	return ret, nil
}

func ConvertToXML(records []AuthenticationRecord, opts EntryOptions) ([][]byte, error) {
	entries := convertToEntries(records, opts)

	ret := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		xmlString, err := xml.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("could not marshal XML: %w", err)
		}
		ret = append(ret, xmlString)
	}
	return ret, nil
}

func convertToEntries(records []AuthenticationRecord, opts EntryOptions) []Entry {
	entries := make([]Entry, len(records))
	for i, record := range records {
		domains := []string{}
		if opts.Resolver != nil {
			names, err := opts.Resolver.CachedDNSLookup(record.SourceIP)
			if err == nil && names != nil {
				domains = names
			}
		}

		entries[i] = Entry{
			EventID:         opts.EventID,
			EventCategory:   opts.EventCategory,
			Filename:        opts.Filename,
			OrgName:         record.OrgName,
			DateBegin:       record.DateRangeBegin,
			DateEnd:         record.DateRangeEnd,
			DateBeginParsed: CustomTime(time.Unix(int64(record.DateRangeBegin), 0).UTC()),
			DateEndParsed:   CustomTime(time.Unix(int64(record.DateRangeEnd), 0).UTC()),
			HeaderFrom:      record.HeaderFrom,
			SourceIP:        record.SourceIP.String(),
			SourceDNS:       domains,
			SourceDNSString: strings.Join(domains, ", "),
			Count:           record.MessageCount,
			ResultDkim: EntryResult{
				Aligned: record.DkimAligned,
				Domain:  record.DkimDomain,
			},
			ResultSpf: EntryResult{
				Aligned: record.SpfAligned,
				Domain:  record.SpfDomain,
			},
		}
	}
	return entries
}

func passFail(aligned bool) string {
	if aligned {
		return "Pass"
	}
	return "Fail"
}

// WriteText writes a human readable block per record to w
func WriteText(w io.Writer, records []AuthenticationRecord) error {
	for i, r := range records {
		_, err := fmt.Fprintf(w,
			"Message %d\nOrganization: %s\nDate Range: %d to %d\nHeader From: %s\nSource IP: %s\nCount: %d\nDKIM Result: %s\nDKIM Domain: %s\nSPF Result: %s\nSPF Domain: %s\n\n",
			i+1, r.OrgName, r.DateRangeBegin, r.DateRangeEnd, r.HeaderFrom, r.SourceIP,
			r.MessageCount, passFail(r.DkimAligned), r.DkimDomain, passFail(r.SpfAligned), r.SpfDomain)
		if err != nil {
			return err
		}
	}
	return nil
}
