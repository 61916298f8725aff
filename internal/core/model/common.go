package model

import (
	"path/filepath"
	"strings"
)

// StatusNotAvailable is reported for records that carry no usable status.
const StatusNotAvailable = "N/A"

// Statuses the backend writes for bookkeeping transitions. They never make a
// record urgent.
const (
	StatusImportedFromGoogle = "imported from google"
	StatusCreatedByUser      = "created by user"
	StatusProposalDeleted    = "proposal deleted"
	StatusInvoiceDeleted     = "invoice deleted"
)

// RecordKind identifies which business entity a record belongs to.
type RecordKind string

const (
	KindClient   RecordKind = "client"
	KindInvoice  RecordKind = "invoice"
	KindProposal RecordKind = "proposal"
	KindUnknown  RecordKind = "unknown"
)

// AllKinds lists the known kinds in display order.
var AllKinds = []RecordKind{KindClient, KindInvoice, KindProposal}

// ParseRecordKind accepts singular and plural spellings in any case.
func ParseRecordKind(s string) RecordKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client", "clients", "contact", "contacts":
		return KindClient
	case "invoice", "invoices":
		return KindInvoice
	case "proposal", "proposals":
		return KindProposal
	default:
		return KindUnknown
	}
}

// KindFromPath guesses the record kind from a file name such as
// "clients.json" or "invoices-2024.jsonl".
func KindFromPath(path string) RecordKind {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "client"), strings.Contains(name, "contact"):
		return KindClient
	case strings.Contains(name, "invoice"):
		return KindInvoice
	case strings.Contains(name, "proposal"):
		return KindProposal
	default:
		return KindUnknown
	}
}

// Plural returns the label used for headings, e.g. "Clients".
func (k RecordKind) Plural() string {
	switch k {
	case KindClient:
		return "Clients"
	case KindInvoice:
		return "Invoices"
	case KindProposal:
		return "Proposals"
	default:
		return "Other"
	}
}

func (k RecordKind) String() string {
	return string(k)
}

// FileEvent reports a change to a record file on disk.
type FileEvent struct {
	Path      string
	Operation string
}
