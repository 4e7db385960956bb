package db

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

var ErrEmptyTable = errors.New("table name is empty")

// QuoteTable quotes a possibly schema-qualified table name ("public.incidents").
func QuoteTable(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyTable
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			return "", errors.New("invalid table name: " + name)
		}
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}
