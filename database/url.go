package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL points baseURL at databaseName.
// An existing database path on baseURL is replaced, query parameters are kept,
// and sslmode=disable is added unless the URL already chooses an sslmode.
// An empty databaseName returns baseURL untouched.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" || baseURL == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" {
		// Not a URL (e.g. a keyword/value DSN); leave it for pgx to reject
		return baseURL
	}

	u.Path = "/" + databaseName
	u.RawPath = ""

	query := u.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()

	return u.String()
}
