package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ramkansal/maplead/pkg/plugin"
	"github.com/sirupsen/logrus"
)

// Header is the exact column layout of a lead store file.
var Header = []string{"name", "website", "website_type", "phone", "address"}

const maxSlugLen = 60

// FileName derives the store file name for a search query. Letters and
// digits of any script are kept, so distinct queries get distinct files.
func FileName(query string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			gap = false
			continue
		}
		gap = true
	}

	slug := []rune(b.String())
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	name := strings.TrimRight(string(slug), "_")
	if name == "" {
		name = "query"
	}
	return "leads_" + name + ".csv"
}

// LeadStore persists the leads of one query as a CSV file. Deduplication
// happens when a batch is merged, so flushing the same leads again never
// adds rows. A single process is expected to own the file for a run.
type LeadStore struct {
	path string
	log  *logrus.Entry
}

// NewLeadStore creates a store backed by the file at path.
func NewLeadStore(path string, log *logrus.Entry) *LeadStore {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LeadStore{path: path, log: log.WithField("path", path)}
}

// ForQuery creates the store for query inside dir.
func ForQuery(dir, query string, log *logrus.Entry) *LeadStore {
	return NewLeadStore(filepath.Join(dir, FileName(query)), log)
}

func (s *LeadStore) Name() string { return "csv" }

func (s *LeadStore) Path() string { return s.path }

// Load reads the persisted leads. A missing file yields no rows and no error.
func (s *LeadStore) Load() ([]plugin.Lead, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	leads, err := ReadLeads(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return leads, nil
}

// Save replaces the store file with leads. The rows are written to a
// temporary file first and renamed over the target.
func (s *LeadStore) Save(leads []plugin.Lead) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if err := WriteLeads(tmp, leads); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Flush merges batch into the persisted rows and rewrites the file. An
// unreadable store is set aside and treated as empty so the current batch is
// never lost.
func (s *LeadStore) Flush(batch []plugin.Lead) (int, error) {
	existing, err := s.Load()
	if err != nil {
		s.log.WithError(err).Warn("existing store unreadable, starting from current batch")
		s.setAside()
		existing = nil
	}

	merged := Merge(existing, batch)
	if err := s.Save(merged); err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"existing": len(existing),
		"batch":    len(batch),
		"rows":     len(merged),
	}).Debug("leads merged")
	return len(merged), nil
}

func (s *LeadStore) setAside() {
	bad := s.path + ".corrupt"
	if err := os.Rename(s.path, bad); err != nil {
		s.log.WithError(err).Debug("could not set aside unreadable store")
		return
	}
	s.log.WithField("moved_to", bad).Warn("unreadable store set aside")
}

// Merge concatenates existing and fresh leads and drops every row whose
// identity key was already seen. Existing rows win over new duplicates.
func Merge(existing, fresh []plugin.Lead) []plugin.Lead {
	seen := make(map[plugin.LeadKey]struct{}, len(existing)+len(fresh))
	out := make([]plugin.Lead, 0, len(existing)+len(fresh))
	for _, group := range [][]plugin.Lead{existing, fresh} {
		for _, l := range group {
			k := l.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}

// ReadLeads parses a lead table. The header must match Header exactly.
func ReadLeads(r io.Reader) ([]plugin.Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected columns %v, want %v", header, Header)
		}
	}

	var leads []plugin.Lead
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row: %w", err)
		}
		leads = append(leads, plugin.Lead{
			Name:        rec[0],
			Website:     rec[1],
			WebsiteType: rec[2],
			Phone:       rec[3],
			Address:     rec[4],
		})
	}
	return leads, nil
}

// WriteLeads writes the header and one row per lead.
func WriteLeads(w io.Writer, leads []plugin.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, l := range leads {
		if err := cw.Write([]string{l.Name, l.Website, l.WebsiteType, l.Phone, l.Address}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
