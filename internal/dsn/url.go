// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var portPattern = regexp.MustCompile(`^\d+$`)

// dialect describes the URL shape accepted for one database family.
type dialect struct {
	typ             DBType
	schemes         []string // accepted schemes, lowercase, without "://"
	canonical       string   // scheme written by Normalize
	defaultPort     string
	requireDatabase bool
	label           string
}

func (d dialect) format() string {
	if d.requireDatabase {
		return d.canonical + "://user:password@host:port/database"
	}
	return d.canonical + "://user:password@host:port[/database]"
}

// URLResolver parses and normalizes URL-shaped DSNs for a single dialect.
type URLResolver struct {
	d dialect
}

// Parse parses a DSN string and returns normalized DSN info
func (r *URLResolver) Parse(dsn string) (*DSNInfo, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", fmt.Sprintf("provide a valid %s connection string", r.d.label))
	}

	scheme, remainder, ok := r.splitScheme(dsn)
	if !ok {
		return nil, NewParseError(dsn, "missing or invalid scheme", "use "+strings.Join(r.schemePrefixes(), " or "))
	}

	parsed, err := url.Parse(scheme + "://" + remainder)
	if err == nil && parsed.User != nil {
		return r.extractFromURL(parsed, dsn)
	}

	// Unencoded special characters in the password break url.Parse.
	return r.manualParse(remainder, dsn)
}

func (r *URLResolver) splitScheme(dsn string) (scheme, remainder string, ok bool) {
	lower := strings.ToLower(dsn)
	for _, s := range r.d.schemes {
		if strings.HasPrefix(lower, s+"://") {
			return s, dsn[len(s)+3:], true
		}
	}
	return "", "", false
}

func (r *URLResolver) schemePrefixes() []string {
	out := make([]string, len(r.d.schemes))
	for i, s := range r.d.schemes {
		out[i] = s + "://"
	}
	return out
}

func (r *URLResolver) extractFromURL(parsed *url.URL, originalDSN string) (*DSNInfo, error) {
	info := &DSNInfo{
		Type:     r.d.typ,
		Host:     parsed.Hostname(),
		Port:     parsed.Port(),
		User:     parsed.User.Username(),
		Database: strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")),
		Params:   make(map[string]string),
		Original: originalDSN,
	}
	info.Password, _ = parsed.User.Password()

	for key, values := range parsed.Query() {
		if len(values) > 0 {
			info.Params[key] = values[0]
		}
	}
	if info.Port == "" {
		info.Port = r.d.defaultPort
	}

	return info, r.checkRequired(info, originalDSN)
}

// manualParse handles [user[:password]@]host[:port][/database][?params]
// when the password contains characters that were never URL-encoded.
func (r *URLResolver) manualParse(remainder, originalDSN string) (*DSNInfo, error) {
	info := &DSNInfo{
		Type:     r.d.typ,
		Port:     r.d.defaultPort,
		Params:   make(map[string]string),
		Original: originalDSN,
	}

	// The last @ separates credentials; passwords may contain @ themselves.
	atIndex := strings.LastIndex(remainder, "@")
	if atIndex == -1 {
		return nil, NewParseError(originalDSN, "missing @ separator", "format should be "+r.d.format())
	}
	authPart := remainder[:atIndex]
	hostAndDB := remainder[atIndex+1:]

	if user, pass, found := strings.Cut(authPart, ":"); found {
		info.User, info.Password = user, pass
	} else {
		info.User = authPart
	}

	hostPart, dbAndParams, hasSlash := strings.Cut(hostAndDB, "/")
	if !hasSlash {
		if r.d.requireDatabase {
			return nil, NewParseError(originalDSN, "missing / before database name", "format should be "+r.d.format())
		}
		hostPart, dbAndParams, _ = strings.Cut(hostAndDB, "?")
		if dbAndParams != "" {
			dbAndParams = "?" + dbAndParams
		}
	}

	if host, port, found := strings.Cut(hostPart, ":"); found {
		info.Host, info.Port = host, port
	} else {
		info.Host = hostPart
	}

	db, params, _ := strings.Cut(dbAndParams, "?")
	info.Database = strings.TrimSpace(db)
	for _, param := range strings.Split(params, "&") {
		if k, v, found := strings.Cut(param, "="); found {
			info.Params[k] = v
		}
	}

	return info, r.checkRequired(info, originalDSN)
}

func (r *URLResolver) checkRequired(info *DSNInfo, originalDSN string) error {
	if strings.TrimSpace(info.User) == "" {
		return NewParseError(originalDSN, "missing username", "provide username in format "+r.d.format())
	}
	if strings.TrimSpace(info.Host) == "" {
		return NewParseError(originalDSN, "missing host", "provide host in format "+r.d.format())
	}
	if r.d.requireDatabase && strings.TrimSpace(info.Database) == "" {
		return NewParseError(originalDSN, "missing database name", "provide database in format "+r.d.format())
	}
	return nil
}

// Normalize converts DSN info to a properly formatted connection string.
// Parameters are written in sorted order so equal DSNs normalize identically.
func (r *URLResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}

	u := url.URL{
		Scheme: r.d.canonical,
		Host:   info.Host,
		Path:   "/" + info.Database,
	}
	if info.Port != "" {
		u.Host = net.JoinHostPort(info.Host, info.Port)
	}
	if info.User != "" {
		if info.Password != "" {
			u.User = url.UserPassword(info.User, info.Password)
		} else {
			u.User = url.User(info.User)
		}
	}
	if info.Database == "" {
		u.Path = ""
	}

	if len(info.Params) > 0 {
		keys := make([]string, 0, len(info.Params))
		for k := range info.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(info.Params[k]))
		}
		u.RawQuery = strings.Join(pairs, "&")
	}

	return u.String(), nil
}

// Validate checks if the DSN is valid for the resolver's dialect
func (r *URLResolver) Validate(dsn string) error {
	info, err := r.Parse(dsn)
	if err != nil {
		return err
	}
	if info.Port != "" && !portPattern.MatchString(info.Port) {
		return NewParseError(dsn, fmt.Sprintf("invalid port number: %s", info.Port), "port must be numeric")
	}
	return nil
}
