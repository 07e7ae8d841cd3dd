package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// schemePrefix matches a leading RFC 3986 scheme. A "://" further along, say
// inside a query value, does not count.
var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

type credentials struct {
	username string
	password string
}

// splitCredentials parses raw and moves any userinfo found in the authority
// out of the URL. Only the authority is inspected, so '@' or ':' in the path
// or query never produce credentials. URLs without a scheme are treated as http.
func splitCredentials(raw string) (string, *credentials, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, errors.New("url is empty")
	}
	if !schemePrefix.MatchString(raw) {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		// url.Error echoes the input, which may carry a password.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", nil, errors.New("url has no host")
	}

	var creds *credentials
	if u.User != nil {
		pass, _ := u.User.Password()
		creds = &credentials{username: u.User.Username(), password: pass}
		u.User = nil
	}
	return u.String(), creds, nil
}

// StripCredentials returns raw with any embedded userinfo removed. Unparseable
// input yields an empty string so it can be logged safely.
func StripCredentials(raw string) string {
	target, _, err := splitCredentials(raw)
	if err != nil {
		return ""
	}
	return target
}
