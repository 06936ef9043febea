package models

import (
	"strings"

	dErrors "contactbook/pkg/domain-errors"
)

// Scope restricts which fields a text query is matched against.
type Scope string

const (
	ScopeAll     Scope = "all"
	ScopeName    Scope = "name"
	ScopeTags    Scope = "tags"
	ScopeCompany Scope = "company"
)

// ParseScope accepts the scope names case-insensitively. An empty string
// selects ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeName:
		return ScopeName, nil
	case ScopeTags:
		return ScopeTags, nil
	case ScopeCompany:
		return ScopeCompany, nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "scope must be one of all, name, tags, company")
}

func (s Scope) String() string {
	return string(s)
}
