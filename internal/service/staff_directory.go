package service

import (
	"crypto/subtle"
	"strings"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// StaffDirectory resolves shared secrets to staff identities.
type StaffDirectory interface {
	Lookup(secret string) (models.StaffIdentity, bool)
}

type staffEntry struct {
	secret   []byte
	identity models.StaffIdentity
}

type staffDirectory struct {
	entries []staffEntry
}

// NewStaffDirectory builds the lookup table from configured accounts.
func NewStaffDirectory(accounts []config.StaffAccount) StaffDirectory {
	entries := make([]staffEntry, 0, len(accounts))
	for _, account := range accounts {
		entries = append(entries, staffEntry{
			secret: []byte(account.Password),
			identity: models.StaffIdentity{
				Role:  models.StaffRole(account.Role),
				Label: account.Label,
				Color: account.Color,
			},
		})
	}
	return &staffDirectory{entries: entries}
}

// Lookup compares the secret against every entry so timing does not reveal which account matched.
func (d *staffDirectory) Lookup(secret string) (models.StaffIdentity, bool) {
	candidate := []byte(strings.TrimSpace(secret))
	if len(candidate) == 0 {
		return models.StaffIdentity{}, false
	}

	var found models.StaffIdentity
	matched := false
	for _, entry := range d.entries {
		if subtle.ConstantTimeCompare(candidate, entry.secret) == 1 {
			found = entry.identity
			matched = true
		}
	}
	return found, matched
}
