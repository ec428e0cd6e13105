package odata

import (
	"net/url"
	"strings"
)

// EncodedDataURL is DataURL with every parameter value percent-encoded
func (u URLSet) EncodedDataURL() string {
	return u.base + "?" + joinParams(u.dataParams, param.encoded)
}

// EncodedPageURL is PageURL with every parameter value percent-encoded.
// This is the URL a remote source fetches.
func (u URLSet) EncodedPageURL() string {
	params := make([]param, 0, len(u.dataParams)+len(u.pageParams))
	params = append(params, u.dataParams...)
	params = append(params, u.pageParams...)
	return u.base + "?" + joinParams(params, param.encoded)
}

func (p param) encoded() string {
	return escape(p.name) + "=" + escape(p.value)
}

func joinParams(params []param, render func(param) string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = render(p)
	}
	return strings.Join(parts, "&")
}

// escape keeps '$' readable; the rest follows url.QueryEscape
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%24", "$")
}
