package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

// UnknownLabel replaces missing, null and empty category values.
const UnknownLabel = "Unknown"

type Kind string

const (
	Patients   Kind = "patients"
	Admissions Kind = "admissions"
	Tests      Kind = "tests"
)

type column struct {
	header string
	field  string
	layout string
}

type definition struct {
	title      string
	collection string
	groupBy    []string
	columns    []column
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var definitions = map[Kind]definition{
	Patients: {
		title:      "Patient Statistics",
		collection: model.CollectionPatients,
		groupBy:    []string{"gender"},
		columns: []column{
			{header: "Patient ID", field: "patient_id"},
			{header: "Name", field: "name"},
			{header: "Gender", field: "gender"},
			{header: "Date of Birth", field: "dob", layout: dateLayout},
			{header: "Contact", field: "contact"},
		},
	},
	Admissions: {
		title:      "Admission Statistics",
		collection: model.CollectionAdmissions,
		groupBy:    []string{"department"},
		columns: []column{
			{header: "Admission ID", field: "admission_id"},
			{header: "Patient ID", field: "patient_id"},
			{header: "Department", field: "department"},
			{header: "Doctor", field: "doctor"},
			{header: "Admission Date", field: "admission_date", layout: dateLayout},
		},
	},
	Tests: {
		title:      "Test Statistics",
		collection: model.CollectionApplications,
		groupBy:    []string{"status", "test_type"},
		columns: []column{
			{header: "Application ID", field: "application_id"},
			{header: "Patient ID", field: "patient_id"},
			{header: "Test Type", field: "test_type"},
			{header: "Status", field: "status"},
			{header: "Created At", field: "created_at", layout: dateTimeLayout},
		},
	},
}

// ParseKind accepts a report type case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := definitions[k]; !ok {
		return "", apperrors.Validation("invalid report type, choose patients, admissions or tests")
	}
	return k, nil
}

type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type Distribution struct {
	Field   string   `json:"field"`
	Buckets []Bucket `json:"buckets"`
}

type Export struct {
	Filename string `json:"filename"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

type Report struct {
	Kind          Kind           `json:"kind"`
	Title         string         `json:"title"`
	Total         int64          `json:"total"`
	Distributions []Distribution `json:"distributions"`
	Export        Export         `json:"export"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

type Service struct {
	gw       store.Gateway
	exporter Exporter
	now      func() time.Time
}

func NewService(gw store.Gateway, exporter Exporter) *Service {
	return &Service{gw: gw, exporter: exporter, now: time.Now}
}

// Generate computes totals and distributions for kind and hands a CSV of
// every record to the exporter.
func (s *Service) Generate(ctx context.Context, kind Kind) (*Report, error) {
	def, ok := definitions[kind]
	if !ok {
		return nil, apperrors.Validation("invalid report type, choose patients, admissions or tests")
	}

	total, err := s.gw.CountDocuments(ctx, def.collection, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", def.collection, err)
	}

	now := s.now()
	r := &Report{Kind: kind, Title: def.title, Total: total, GeneratedAt: now}
	for _, field := range def.groupBy {
		groups, err := s.gw.Aggregate(ctx, def.collection, field)
		if err != nil {
			return nil, fmt.Errorf("failed to group %s by %s: %w", def.collection, field, err)
		}
		r.Distributions = append(r.Distributions, Distribution{Field: field, Buckets: Buckets(groups)})
	}

	data, rows, err := s.exportCSV(ctx, def)
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("%s_report_%s.csv", kind, now.Format("20060102"))
	location, err := s.exporter.Export(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}
	r.Export = Export{Filename: filename, Location: location, Rows: rows}
	return r, nil
}

func (s *Service) exportCSV(ctx context.Context, def definition) ([]byte, int, error) {
	var docs []bson.M
	if err := s.gw.Find(ctx, def.collection, store.Filter{}, nil, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", def.collection, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(def.columns))
	for i, c := range def.columns {
		header[i] = c.header
	}
	if err := w.Write(header); err != nil {
		return nil, 0, err
	}
	for _, d := range docs {
		row := make([]string, len(def.columns))
		for i, c := range def.columns {
			row[i] = cell(d[c.field], c.layout)
		}
		if err := w.Write(row); err != nil {
			return nil, 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, fmt.Errorf("failed to write report csv: %w", err)
	}
	return buf.Bytes(), len(docs), nil
}

func cell(v interface{}, layout string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case primitive.DateTime:
		return formatTime(x.Time().UTC(), layout)
	case time.Time:
		return formatTime(x, layout)
	default:
		return fmt.Sprint(x)
	}
}

func formatTime(t time.Time, layout string) string {
	if layout == "" {
		layout = dateTimeLayout
	}
	return t.Format(layout)
}

// Buckets labels grouped counts, folding missing, null and empty keys into
// a single Unknown bucket. Larger buckets come first.
func Buckets(groups []store.Group) []Bucket {
	index := make(map[string]int)
	var out []Bucket
	for _, g := range groups {
		label := UnknownLabel
		switch k := g.Key.(type) {
		case nil:
		case string:
			if k != "" {
				label = k
			}
		default:
			label = fmt.Sprint(k)
		}
		if i, ok := index[label]; ok {
			out[i].Count += g.Count
			continue
		}
		index[label] = len(out)
		out = append(out, Bucket{Label: label, Count: g.Count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
