package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// StatusEvent records one lifecycle transition of a record.
type StatusEvent struct {
	Status string    `json:"status"`
	Date   Timestamp `json:"date"`
}

// TrackedRecord is a client, invoice or proposal as returned by the backend.
// StatusHistory is kept in insertion order.
type TrackedRecord struct {
	ID            string         `json:"id,omitempty"`
	Kind          RecordKind     `json:"kind,omitempty"`
	Name          string         `json:"name,omitempty"`
	Title         string         `json:"title,omitempty"`
	InvoiceNumber FlexibleString `json:"invoiceNumber,omitempty"`
	Email         string         `json:"email,omitempty"`
	StatusHistory []StatusEvent  `json:"statusHistory"`
	UpdatedAt     Timestamp      `json:"updatedAt"`
	CreatedAt     Timestamp      `json:"createdAt"`
	SourceFile    string         `json:"sourceFile,omitempty"`
}

// recordNamespace seeds the ids generated for records that arrive without one.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/penwyp/go-biz-monitor/records"))

// Normalize fills the fields the backend may leave out. Records without an id
// get a UUIDv5 derived from their source file and position so that reloading
// the same file yields the same ids.
func (r *TrackedRecord) Normalize(sourceFile string, index int) {
	if r.ID == "" {
		r.ID = uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%s#%d", sourceFile, index))).String()
	}
	if r.Kind == "" {
		r.Kind = KindFromPath(sourceFile)
	} else {
		r.Kind = ParseRecordKind(string(r.Kind))
	}
	r.SourceFile = sourceFile
}

// DisplayName returns the most descriptive label available.
func (r TrackedRecord) DisplayName() string {
	switch {
	case strings.TrimSpace(r.Name) != "":
		return r.Name
	case strings.TrimSpace(r.Title) != "":
		return r.Title
	case r.InvoiceNumber != "":
		return "#" + string(r.InvoiceNumber)
	default:
		return r.ID
	}
}

// ResolvedRecord is a record annotated with its derived status and urgency.
type ResolvedRecord struct {
	TrackedRecord
	CurrentStatus string  `json:"currentStatus"`
	Urgent        bool    `json:"urgent"`
	AgeDays       float64 `json:"ageDays"`
}

// Timestamp decodes the date shapes the backend has produced over time.
// Missing or malformed values decode to the zero Timestamp instead of failing
// the surrounding record.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s with the known layouts. Numeric strings are read as
// Unix milliseconds.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return Timestamp{Time: time.UnixMilli(int64(ms))}, true
	}
	return Timestamp{}, false
}

// Millis returns Unix milliseconds, treating the zero Timestamp as epoch 0.
func (ts Timestamp) Millis() int64 {
	if ts.IsZero() {
		return 0
	}
	return ts.UnixMilli()
}

// Known reports whether ts is a usable instant. Zero and the epoch itself
// both mean the source had no real value.
func (ts Timestamp) Known() bool {
	return ts.Millis() > 0
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*ts = Timestamp{}
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			*ts = Timestamp{}
			return nil
		}
		parsed, _ := ParseTimestamp(s)
		*ts = parsed
		return nil
	}

	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		*ts = Timestamp{Time: time.UnixMilli(int64(ms))}
		return nil
	}

	*ts = Timestamp{}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(ts.UTC().Format(time.RFC3339Nano))), nil
}

// FlexibleString accepts either a JSON string or a JSON number. Any other
// shape decodes to the empty string.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*fs = ""
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*fs = FlexibleString(str)
		return nil
	}

	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		*fs = FlexibleString(raw)
		return nil
	}

	*fs = ""
	return nil
}
