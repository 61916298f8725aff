package fixtures

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// EventEntry is one statusHistory element as the backend exports it
type EventEntry struct {
	Status string `json:"status"`
	Date   string `json:"date"`
}

// RecordEntry represents a client, invoice or proposal document
type RecordEntry struct {
	ID            string       `json:"_id,omitempty"`
	Kind          string       `json:"kind,omitempty"`
	Name          string       `json:"name,omitempty"`
	Title         string       `json:"title,omitempty"`
	InvoiceNumber string       `json:"invoiceNumber,omitempty"`
	Email         string       `json:"email,omitempty"`
	StatusHistory []EventEntry `json:"statusHistory"`
	UpdatedAt     string       `json:"updatedAt,omitempty"`
	CreatedAt     string       `json:"createdAt,omitempty"`
}

// TestDataGenerator writes record exports relative to a fixed reference time
type TestDataGenerator struct {
	baseDir string
	now     time.Time
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string, now time.Time) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
		now:     now,
	}
}

// Now returns the reference time every generated age is measured from
func (g *TestDataGenerator) Now() time.Time {
	return g.now
}

// Record builds an entry last updated age ago. Each status is dated one hour
// after the previous one, ending at the update time.
func (g *TestDataGenerator) Record(id, name string, age time.Duration, statuses ...string) RecordEntry {
	updated := g.now.Add(-age)
	entry := RecordEntry{
		ID:        id,
		Name:      name,
		UpdatedAt: updated.UTC().Format(time.RFC3339),
		CreatedAt: updated.Add(-time.Duration(len(statuses)) * time.Hour).UTC().Format(time.RFC3339),
	}
	entry.StatusHistory = make([]EventEntry, 0, len(statuses))
	for i, status := range statuses {
		date := updated.Add(-time.Duration(len(statuses)-1-i) * time.Hour)
		entry.StatusHistory = append(entry.StatusHistory, EventEntry{
			Status: status,
			Date:   date.UTC().Format(time.RFC3339),
		})
	}
	return entry
}

// GenerateExampleSet writes the canonical three-client example
// (A sent 11 days ago, B created by user 20 days ago, C paid 1 day ago)
// plus a small invoice and proposal export.
func (g *TestDataGenerator) GenerateExampleSet() error {
	clients := []RecordEntry{
		g.Record("A", "Alpha Ltd", 11*24*time.Hour, "created by user", "sent"),
		g.Record("B", "Beta GmbH", 20*24*time.Hour, "created by user"),
		g.Record("C", "Gamma Inc", 24*time.Hour, "sent", "paid"),
	}
	if err := g.WriteJSON("clients.json", clients); err != nil {
		return err
	}

	invoice := g.Record("INV-1", "", 8*24*time.Hour, "sent")
	invoice.InvoiceNumber = "1001"
	deleted := g.Record("INV-2", "", 30*24*time.Hour, "sent", "Invoice Deleted")
	deleted.InvoiceNumber = "1002"
	if err := g.WriteJSONL("invoices.jsonl", []RecordEntry{invoice, deleted}); err != nil {
		return err
	}

	proposal := g.Record("P-1", "", 2*24*time.Hour, "sent")
	proposal.Title = "Website redesign"
	return g.WriteJSON(filepath.Join("proposals", "proposals.json"), map[string]any{
		"proposals": []RecordEntry{proposal},
	})
}

// GenerateLargeDataset writes numEntries clients with spread-out ages
func (g *TestDataGenerator) GenerateLargeDataset(fileName string, numEntries int) error {
	statuses := []string{"sent", "viewed", "accepted", "created by user", "paid"}
	entries := make([]RecordEntry, 0, numEntries)
	for i := 0; i < numEntries; i++ {
		age := time.Duration(i%40) * 24 * time.Hour
		entries = append(entries, g.Record(
			"client-"+strconv.Itoa(i),
			"Client "+strconv.Itoa(i),
			age,
			statuses[i%len(statuses)],
		))
	}
	return g.WriteJSON(fileName, entries)
}

// WriteJSON writes v as an indented JSON document
func (g *TestDataGenerator) WriteJSON(name string, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return g.writeFile(name, data)
}

// WriteJSONL writes one record per line
func (g *TestDataGenerator) WriteJSONL(name string, entries []RecordEntry) error {
	var buf bytes.Buffer
	for _, entry := range entries {
		line, err := sonic.ConfigStd.Marshal(entry)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return g.writeFile(name, buf.Bytes())
}

// WriteRaw writes content as-is, for malformed input cases
func (g *TestDataGenerator) WriteRaw(name, content string) error {
	return g.writeFile(name, []byte(content))
}

func (g *TestDataGenerator) writeFile(name string, data []byte) error {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Path returns the absolute path of a generated file
func (g *TestDataGenerator) Path(name string) string {
	return filepath.Join(g.baseDir, name)
}

// CleanupTestData removes all generated test data
func (g *TestDataGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}

// GetBaseDir returns the base directory for test data
func (g *TestDataGenerator) GetBaseDir() string {
	return g.baseDir
}
