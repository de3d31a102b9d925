// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

var mysqlDialect = dialect{
	typ:         DBTypeMySQL,
	schemes:     []string{"mysql"},
	canonical:   "mysql",
	defaultPort: "3306",
	label:       "MySQL",
}

// NewMySQLResolver creates a resolver for mysql:// DSNs.
// The database is optional; queries may select one per call.
func NewMySQLResolver() *URLResolver {
	return &URLResolver{d: mysqlDialect}
}
