// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

var postgresDialect = dialect{
	typ:             DBTypePostgreSQL,
	schemes:         []string{"postgresql", "postgres"},
	canonical:       "postgresql",
	defaultPort:     "5432",
	requireDatabase: true,
	label:           "PostgreSQL",
}

// NewPostgreSQLResolver creates a resolver for postgres:// and postgresql:// DSNs.
// A database name is mandatory.
func NewPostgreSQLResolver() *URLResolver {
	return &URLResolver{d: postgresDialect}
}
