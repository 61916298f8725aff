package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

// wrapperKeys are the envelope fields REST responses put record arrays under.
var wrapperKeys = []string{"data", "records", "items", "clients", "invoices", "proposals"}

// Parser decodes record files exported from the backend.
type Parser struct {
	concurrency int
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File    string
	Records []model.TrackedRecord
	Error   error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile decodes one file. JSONL files hold one record per line; JSON files
// hold an array, an envelope object wrapping an array, or a single record.
// Records that fail to decode are skipped.
func (p *Parser) ParseFile(path string) ([]model.TrackedRecord, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", path))

	var (
		raws []rawRecord
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		raws, err = readLines(path)
	} else {
		raws, err = readDocument(path)
	}
	if err != nil {
		return nil, err
	}

	records := make([]model.TrackedRecord, 0, len(raws))
	for i, raw := range raws {
		var wire wireRecord
		if err := sonic.Unmarshal(raw.data, &wire); err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid record %s:%d - %v", path, i+1, err))
			continue
		}
		record := wire.TrackedRecord
		if record.ID == "" {
			record.ID = string(wire.MongoID)
		}
		if record.Kind == "" && raw.kind != "" {
			record.Kind = raw.kind
		}
		record.Normalize(path, i)
		records = append(records, record)
	}

	util.LogDebug(fmt.Sprintf("Parsed %d/%d records from %s", len(records), len(raws), path))
	return records, nil
}

// wireRecord is a record as exported by the backend, which may name its id
// "_id". Only ID is carried forward, so output never repeats it.
type wireRecord struct {
	model.TrackedRecord
	MongoID model.FlexibleString `json:"_id"`
}

type rawRecord struct {
	data []byte
	kind model.RecordKind
}

func readLines(path string) ([]rawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raws []rawRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			util.LogDebug(fmt.Sprintf("Skip non-object line %s:%d", path, lineCount))
			continue
		}
		raws = append(raws, rawRecord{data: append([]byte(nil), line...)})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return raws, nil
}

func readDocument(path string) ([]rawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitDocument(bytes.TrimSpace(data))
}

// splitDocument breaks a JSON document into individual record payloads.
func splitDocument(data []byte) ([]rawRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		return splitArray(data, "")
	case '{':
		var envelope map[string]json.RawMessage
		if err := sonic.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("invalid JSON object: %w", err)
		}
		for _, key := range wrapperKeys {
			inner, ok := envelope[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) == 0 || inner[0] != '[' {
				continue
			}
			kind := model.ParseRecordKind(key)
			if kind == model.KindUnknown {
				kind = ""
			}
			return splitArray(inner, kind)
		}
		return []rawRecord{{data: data}}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON document starting with %q", data[0])
	}
}

func splitArray(data []byte, kind model.RecordKind) ([]rawRecord, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	raws := make([]rawRecord, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		raws = append(raws, rawRecord{data: item, kind: kind})
	}
	return raws, nil
}

// ParseFiles parses multiple files concurrently and returns a channel of ParseResult.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency))

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			records, err := p.ParseFile(f)
			if err != nil {
				util.LogDebug(fmt.Sprintf("File parsing failed: %s, duration %v - %v", f, time.Since(fileStart), err))
			}

			results <- ParseResult{
				File:    f,
				Records: records,
				Error:   err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	}()

	return results
}
