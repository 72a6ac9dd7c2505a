// Package errmsg turns client and paging errors into localized, user-facing
// messages.
//
// HTTP errors get a base message keyed by status code (400, 401, 403, 404,
// 422 and 500/503 have their own, other 4xx and 5xx codes share a generic
// one). Detail strings from the API's {"errors": [...]} envelope are joined
// with ", " and appended on a new line. Unclassified errors carry the first
// 100 characters of the error text.
package errmsg

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxSnippet is the number of characters of an unclassified error shown.
const maxSnippet = 100

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(Supported)
)

// Formatter formats errors for one locale. It is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a formatter for the best match of the given locale
// preferences. Each preference may be a tag ("de-AT") or a full
// Accept-Language header value. Unknown or empty preferences fall back to
// English.
func New(preferences ...string) *Formatter {
	tag := Match(preferences...)
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Match returns the supported locale that best fits the preferences.
func Match(preferences ...string) language.Tag {
	_, index := language.MatchStrings(matcher, preferences...)
	return Supported[index]
}

// Locale returns the BCP 47 tag of the formatter's locale.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Format returns the message for err. A nil error yields "".
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		base := f.status(apiErr.StatusCode)
		if len(apiErr.Errors) > 0 {
			return base + "\n" + strings.Join(apiErr.Errors, ", ")
		}
		return base
	}

	switch client.Classify(err) {
	case client.ErrorClassNetwork:
		if client.IsTimeout(err) {
			return f.printer.Sprintf(keyTimeout)
		}
		return f.printer.Sprintf(keyNetwork)
	case client.ErrorClassEmptyBody:
		return f.printer.Sprintf(keyEmptyBody)
	case client.ErrorClassRateLimit:
		return f.printer.Sprintf(keyRateLimit)
	case client.ErrorClassCanceled:
		return f.printer.Sprintf(keyCanceled)
	default:
		return f.printer.Sprintf(keyUnknown, truncate(err.Error(), maxSnippet))
	}
}

func (f *Formatter) status(code int) string {
	switch code {
	case http.StatusBadRequest:
		return f.printer.Sprintf(keyBadRequest)
	case http.StatusUnauthorized:
		return f.printer.Sprintf(keyUnauthorized)
	case http.StatusForbidden:
		return f.printer.Sprintf(keyForbidden)
	case http.StatusNotFound:
		return f.printer.Sprintf(keyNotFound)
	case http.StatusUnprocessableEntity:
		return f.printer.Sprintf(keyUnprocessable)
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return f.printer.Sprintf(keyUnavailable)
	}

	if code >= 500 {
		return f.printer.Sprintf(keyServerGeneric, code)
	}
	return f.printer.Sprintf(keyClientGeneric, code)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
