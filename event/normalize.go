package event

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// valueSeparator joins multi-valued headers and query parameters
const valueSeparator = ", "

/* normalize collapses a multi-valued mapping into one string per key
 * Keys without values are dropped
 */
func normalize(values map[string][]string, key func(string) string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		result[key(k)] = strings.Join(v, valueSeparator)
	}
	return result
}

// NormalizeHeaders lower-cases header names and joins repeated values
func NormalizeHeaders(header http.Header) map[string]string {
	return normalize(header, strings.ToLower)
}

// NormalizeQuery joins repeated query parameters, keeping names as sent
func NormalizeQuery(query url.Values) map[string]string {
	return normalize(query, func(k string) string { return k })
}

/* BodyText renders a raw request body as text
 * JSON objects and arrays are pretty-printed, everything else is kept as UTF-8 text
 * Returns nil when the request carried no body
 */
func BodyText(contentType string, raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}

	if isJSON(contentType) {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			var out bytes.Buffer
			if err := json.Indent(&out, trimmed, "", "  "); err == nil {
				text := out.String()
				return &text
			}
		}
	}

	text := strings.ToValidUTF8(string(raw), "�")
	return &text
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
