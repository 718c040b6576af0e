package interactions

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/smartnews/newsrec/internal/catalog"
	"github.com/smartnews/newsrec/internal/models"
)

// Column aliases for interaction log files, matched case-insensitively.
var (
	userAliases   = []string{"userid", "user_id", "user"}
	titleAliases  = []string{"title", "headline"}
	ratingAliases = []string{"ratings", "rating"}
	timeAliases   = []string{"time spent (seconds)", "time_spent_seconds", "time spent", "timespent"}
)

// MemoryStore holds the full interaction log in memory, grouped by user.
// Read-only after construction.
type MemoryStore struct {
	byUser map[string][]models.InteractionRecord
	users  []string
	total  int64
}

// NewMemoryStore builds a store from records.
func NewMemoryStore(records []models.InteractionRecord) *MemoryStore {
	byUser := make(map[string][]models.InteractionRecord)
	for _, rec := range records {
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}
	users := make([]string, 0, len(byUser))
	for user := range byUser {
		users = append(users, user)
	}
	sort.Strings(users)
	return &MemoryStore{byUser: byUser, users: users, total: int64(len(records))}
}

// LoadFile reads an interaction log from a .csv or .xlsx file into a
// MemoryStore.
func LoadFile(path string) (*MemoryStore, error) {
	records, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(records), nil
}

// ReadFile reads interaction records from a .csv or .xlsx file without
// building a store. Used for bulk imports into SQLite.
func ReadFile(path string) ([]models.InteractionRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("interactions: %s is empty", path)
	}
	records, err := parseRows(rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("interactions: %s: %w", path, err)
	}
	return records, nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("interactions: open %s: %w", path, err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("interactions: parse %s: %w", path, err)
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("interactions: open %s: %w", path, err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("interactions: %s has no sheets", path)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("interactions: read sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("interactions: unsupported file format %q", filepath.Ext(path))
	}
}

// parseRows maps raw rows to records. UserID and title columns are
// required; rating and time-spent default to 0 when the column is absent or
// a cell fails to parse.
func parseRows(header []string, rows [][]string) ([]models.InteractionRecord, error) {
	userIdx, ok := catalog.ResolveColumn(header, userAliases)
	if !ok {
		return nil, fmt.Errorf("no resolvable user id column in header %v", header)
	}
	titleIdx, ok := catalog.ResolveColumn(header, titleAliases)
	if !ok {
		return nil, fmt.Errorf("no resolvable title column in header %v", header)
	}
	// Optional columns resolve to -1 when absent; cellFloat degrades to 0.
	ratingIdx, _ := catalog.ResolveColumn(header, ratingAliases)
	timeIdx, _ := catalog.ResolveColumn(header, timeAliases)

	records := make([]models.InteractionRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.InteractionRecord{
			UserID:           cell(row, userIdx),
			Title:            cell(row, titleIdx),
			Rating:           cellFloat(row, ratingIdx),
			TimeSpentSeconds: cellFloat(row, timeIdx),
		}
		if rec.UserID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellFloat(row []string, idx int) float64 {
	v, err := strconv.ParseFloat(cell(row, idx), 64)
	if err != nil {
		return 0
	}
	return v
}

// ForUser returns the user's records. The returned slice is shared; callers
// must not mutate it.
func (s *MemoryStore) ForUser(_ context.Context, userID string) ([]models.InteractionRecord, error) {
	return s.byUser[userID], nil
}

// Users returns the distinct user ids, sorted.
func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	return s.users, nil
}

// Count returns the total record count.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	return s.total, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
