package dmarc

import (
	"net/netip"
)

// AuthenticationRecord holds the authentication outcome of a single
// <record> element of a DMARC aggregate report
// https://tools.ietf.org/html/rfc7489#appendix-C
type AuthenticationRecord struct {
	OrgName        string     `xml:"org_name" json:"org_name"`
	DateRangeBegin uint32     `xml:"date_range_begin" json:"date_range_begin"`
	DateRangeEnd   uint32     `xml:"date_range_end" json:"date_range_end"`
	HeaderFrom     string     `xml:"header_from" json:"header_from"`
	SourceIP       netip.Addr `xml:"source_ip" json:"source_ip"`
	MessageCount   uint32     `xml:"message_count" json:"message_count"`
	DkimAligned    bool       `xml:"dkim_aligned" json:"dkim_aligned"`
	DkimDomain     string     `xml:"dkim_domain" json:"dkim_domain"`
	SpfAligned     bool       `xml:"spf_aligned" json:"spf_aligned"`
	SpfDomain      string     `xml:"spf_domain" json:"spf_domain"`
}

// NewAuthenticationRecord returns a record with every field at its default.
// The source ip defaults to 0.0.0.0 so it is never the invalid zero Addr.
func NewAuthenticationRecord() AuthenticationRecord {
	return AuthenticationRecord{
		SourceIP: netip.IPv4Unspecified(),
	}
}
