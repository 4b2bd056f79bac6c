package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cinefile/internal/textutil"
)

// Record is one raw row of an import source after column normalization.
type Record struct {
	// Line is the 1-based data row number, for skip reports.
	Line   int
	Title  string
	Year   int
	Rank   *int
	TMDBID int64
}

type field int

const (
	fieldUnknown field = iota
	fieldTitle
	fieldYear
	fieldRank
	fieldTMDBID
)

// columnAliases lists header aliases per field in precedence order; the
// canonical name comes first.
var columnAliases = []struct {
	name  string
	field field
}{
	{"title", fieldTitle},
	{"movie", fieldTitle},
	{"film", fieldTitle},
	{"name", fieldTitle},
	{"year", fieldYear},
	{"date", fieldYear},
	{"rank", fieldRank},
	{"position", fieldRank},
	{"pos", fieldRank},
	{"no", fieldRank},
	{"tmdb_id", fieldTMDBID},
	{"tmdbid", fieldTMDBID},
	{"tmdb", fieldTMDBID},
}

var yearPattern = regexp.MustCompile(`\d{4}`)

func columnField(header string) field {
	f, _ := lookupAlias(header)
	return f
}

// lookupAlias returns the field for header and its precedence, lower first.
func lookupAlias(header string) (field, int) {
	key := textutil.NormalizeHeader(header)
	for i, alias := range columnAliases {
		if alias.name == key {
			return alias.field, i
		}
	}
	return fieldUnknown, len(columnAliases)
}

// orderedKeys returns obj's recognised keys ordered by alias precedence, so
// the canonical key wins when a row carries several aliases of one field.
func orderedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		if f, _ := lookupAlias(key); f != fieldUnknown {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		_, pi := lookupAlias(keys[i])
		_, pj := lookupAlias(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// ParseFile parses path as CSV or JSON based on its extension.
func ParseFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(file)
	case ".csv", ".txt", "":
		return ParseCSV(file)
	default:
		return nil, fmt.Errorf("unsupported import file type %q", filepath.Ext(path))
	}
}

// ParseCSV reads a CSV document with a header row. Unknown columns are
// ignored and blank lines skipped.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	fields := make([]field, len(header))
	hasTitle := false
	for i, h := range header {
		fields[i] = columnField(strings.TrimPrefix(h, "\ufeff"))
		hasTitle = hasTitle || fields[i] == fieldTitle
	}
	if !hasTitle && !containsField(fields, fieldTMDBID) {
		return nil, fmt.Errorf("csv header %v has no title or tmdb_id column", header)
	}

	var records []Record
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if blankRow(row) {
			continue
		}
		line++
		rec := Record{Line: line}
		for i, value := range row {
			if i >= len(fields) {
				break
			}
			applyField(&rec, fields[i], value)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseJSON reads either an array of row objects or an object with a
// "movies" array. Rows without a rank take their 1-based position.
func ParseJSON(r io.Reader) ([]Record, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	var rows []any
	switch doc := raw.(type) {
	case []any:
		rows = doc
	case map[string]any:
		keys := make([]string, 0, len(doc))
		for key := range doc {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if textutil.NormalizeHeader(key) != "movies" {
				continue
			}
			if list, ok := doc[key].([]any); ok {
				rows = list
				break
			}
		}
		if rows == nil {
			return nil, errors.New(`json object has no "movies" array`)
		}
	default:
		return nil, errors.New("json must be an array or an object with a movies array")
	}

	records := make([]Record, 0, len(rows))
	for idx, item := range rows {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json row %d is not an object", idx+1)
		}
		rec := Record{Line: idx + 1}
		for _, key := range orderedKeys(obj) {
			applyField(&rec, columnField(key), jsonString(obj[key]))
		}
		if rec.Rank == nil {
			rank := idx + 1
			rec.Rank = &rank
		}
		records = append(records, rec)
	}
	return records, nil
}

// applyField sets one field from value unless an earlier column already did.
func applyField(rec *Record, f field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	switch f {
	case fieldTitle:
		if rec.Title == "" {
			rec.Title = strings.Trim(value, `"`)
		}
	case fieldYear:
		if match := yearPattern.FindString(value); match != "" && rec.Year == 0 {
			rec.Year, _ = strconv.Atoi(match)
		}
	case fieldRank:
		if rank, err := strconv.Atoi(value); err == nil && rank > 0 && rec.Rank == nil {
			rec.Rank = &rank
		}
	case fieldTMDBID:
		if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 && rec.TMDBID == 0 {
			rec.TMDBID = id
		}
	}
}

func jsonString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func containsField(fields []field, want field) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}
