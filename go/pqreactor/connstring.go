package pqreactor

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ParseConnInfo turns a DSN or postgres:// URL into the keyword/value pairs
// ConnectOp needs. URLs are first normalized to libpq's keyword=value
// conninfo format via lib/pq's ParseURL (the same conversion lib/pq itself
// performs before handing the string to the C driver in cgo builds); a
// string that isn't a URL is assumed to already be in that format.
func ParseConnInfo(dsn string) (keywords, values []string, err error) {
	conninfo := dsn
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		conninfo, err = pq.ParseURL(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("pqreactor: parsing connection URL: %w", err)
		}
	}
	return parseConninfoString(conninfo)
}

// parseConninfoString splits libpq's keyword=value conninfo format into
// parallel keyword/value slices, honoring single-quoted values (which may
// contain escaped quotes and spaces) exactly as PQconninfoParse documents.
func parseConninfoString(s string) (keywords, values []string, err error) {
	i, n := 0, len(s)
	for i < n {
		for i < n && isConninfoSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}

		keyStart := i
		for i < n && s[i] != '=' && !isConninfoSpace(s[i]) {
			i++
		}
		if i >= n || s[i] != '=' {
			return nil, nil, fmt.Errorf("pqreactor: missing '=' after keyword %q in connection string", s[keyStart:i])
		}
		key := s[keyStart:i]
		i++ // skip '='

		var value strings.Builder
		if i < n && s[i] == '\'' {
			i++
			for i < n {
				if s[i] == '\\' && i+1 < n {
					value.WriteByte(s[i+1])
					i += 2
					continue
				}
				if s[i] == '\'' {
					i++
					break
				}
				value.WriteByte(s[i])
				i++
			}
		} else {
			for i < n && !isConninfoSpace(s[i]) {
				value.WriteByte(s[i])
				i++
			}
		}

		keywords = append(keywords, key)
		values = append(values, value.String())
	}
	return keywords, values, nil
}

func isConninfoSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
