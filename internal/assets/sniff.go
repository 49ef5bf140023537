package assets

import (
	"bytes"
	"mime"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsHTMLErrorPage reports whether fetched content is an HTML page. Static
// file servers often answer a missing path with 200 and an HTML body; such
// responses must count as "not found" rather than as content.
func IsHTMLErrorPage(contentType string, body []byte) bool {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if mt == "text/html" || mt == "application/xhtml+xml" {
				return true
			}
		}
	}

	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimPrefix(head, utf8BOM)
	head = bytes.ToLower(bytes.TrimLeft(head, " \t\r\n"))
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}
