// Package roles maps an employee's jabatan (job title) to the single
// dashboard view that title is allowed to open.
package roles

import (
	"strings"

	"opsboard/internal/apperrors"
)

// MatchKind selects how a rule compares against the submitted title.
// The mix of exact and containment rules is a business decision carried
// over verbatim; evaluation order matters because containment rules
// shadow later exact entries (any "SOPIR ..." title hits the generic
// driver rule before its dedicated entry is reached).
type MatchKind int

const (
	Equals MatchKind = iota
	Contains
)

// Rule is one (predicate, route) pair.
type Rule struct {
	Match MatchKind
	Title string
	Route string
}

// Table is the full routing rule set, evaluated top to bottom,
// first match wins. Titles are compared uppercase.
var Table = []Rule{
	{Equals, "SUPER ADMIN", "/admin"},
	{Equals, "OWNER", "/owner"},
	{Contains, "OPRATOR BP", "/"},
	{Contains, "SOPIR", "/sopir"},
	{Contains, "KEPALA MEKANIK", "/kepala-mekanik"},
	{Contains, "KEPALA WORKSHOP", "/workshop"},
	{Contains, "ADMIN BP", "/admin-bp"},
	{Contains, "ADMIN LOGISTIK MATERIAL", "/admin-logistik-material"},
	{Contains, "QC", "/qc"},
	{Contains, "PEKERJA BONGKAR SEMEN", "/bongkar-semen"},
	{Contains, "HRD PUSAT", "/hrd-pusat"},
	{Contains, "HSE K3", "/hse-k3"},
	{Equals, "OPRATOR FOKO", "/oprator-foko"},
	{Equals, "OPRATOR GANTRI", "/oprator-gantri"},
	{Equals, "OPRATOR BATA RINGAN", "/oprator-bata-ringan"},
	{Equals, "OPRATOR PAVING", "/oprator-paving"},
	{Equals, "OPRATOR EXA", "/oprator-exa"},
	{Equals, "OPRATOR FORKLIFT", "/oprator-forklift"},
	{Equals, "SOPIR TM", "/sopir-tm"},
	{Equals, "SOPIR OPRASIONAL", "/sopir-oprasional"},
	{Equals, "SOPIR KT", "/sopir-kt"},
	{Equals, "SOPIR DUTRO", "/sopir-dutro"},
	{Equals, "ADMIN QC", "/admin-qc"},
	{Equals, "ADMIN BBM", "/admin-bbm"},
	{Equals, "ADMIN PRECAST", "/admin-precast"},
	{Equals, "KEPALA PRECAST", "/kepala-precast"},
	{Equals, "KEPALA BP", "/kepala-bp"},
	{Equals, "KEPALA KOORDINATOR QC", "/kepala-koordinator-qc"},
	{Equals, "KEPALA KOORDINATOR BP", "/kepala-koordinator-bp"},
	{Equals, "KEPALA KOORDINATOR TEKNIK", "/kepala-koordinator-teknik"},
	{Equals, "KEPALA SOPIR TM", "/kepala-sopir-tm"},
	{Equals, "KEPALA SOPIR DT", "/kepala-sopir-dt"},
	{Equals, "KEPALA SOPIR KT", "/kepala-sopir-kt"},
	{Equals, "KEPALA OPRATOR CP", "/kepala-oprator-cp"},
	{Equals, "HELPER BP", "/helper-bp"},
	{Equals, "HELPER QC", "/helper-qc"},
	{Equals, "HELPER PRECAST & BATA RINGAN", "/helper-precast"},
	{Equals, "HELPER PAVING", "/helper-paving"},
	{Equals, "HELPER MEKANIK", "/helper-mekanik"},
	{Equals, "HELPER CP", "/helper-cp"},
	{Equals, "HELPER LOGISTIK", "/helper-logistik"},
	{Equals, "VIEWER", "/viewer"},
}

// Resolve returns the route assigned to a jabatan, or ErrUnauthorized
// when no rule matches. Matching is case-insensitive.
func Resolve(jabatan string) (string, error) {
	title := strings.ToUpper(strings.TrimSpace(jabatan))

	for _, r := range Table {
		switch r.Match {
		case Equals:
			if title == r.Title {
				return r.Route, nil
			}
		case Contains:
			if strings.Contains(title, r.Title) {
				return r.Route, nil
			}
		}
	}
	return "", apperrors.ErrUnauthorized
}
