package models

import "strings"

// OSFamily is the package-management family of a host.
type OSFamily string

// Known OS families.
const (
	FamilyDebian       OSFamily = "debian"
	FamilyAmazon       OSFamily = "amazon"
	FamilyUnrecognized OSFamily = "unrecognized"
)

var osAliases = map[string]OSFamily{
	"ubuntu": FamilyDebian,
	"debian": FamilyDebian,
	"amzn":   FamilyAmazon,
	"amazon": FamilyAmazon,
}

// ClassifyOS maps an os-release ID to its family.
func ClassifyOS(id string) OSFamily {
	if family, ok := osAliases[strings.ToLower(strings.TrimSpace(id))]; ok {
		return family
	}
	return FamilyUnrecognized
}

// HostInfo holds what was learned about a host by probing it once.
type HostInfo struct {
	OSID     string // raw ID field from /etc/os-release, lowercase
	Codename string // release codename, may be empty
	Family   OSFamily
}
