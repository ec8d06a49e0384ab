// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/entrez-mcp/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) *Store {
	t.Helper()
	cfg := types.HistoryConfig{
		HistoryDir: filepath.Join(t.TempDir(), "history"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, s *Store, tool, argument string, status types.InvocationStatus, minutes int) types.Invocation {
	t.Helper()
	inv, err := s.Record(context.Background(), types.Invocation{
		Tool:       tool,
		Argument:   argument,
		Status:     status,
		StartedAt:  testBase.Add(time.Duration(minutes) * time.Minute),
		DurationMS: 120,
	})
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

// --- tests ---

func TestRecordAndRetrieve(t *testing.T) {
	s := testSetup(t)
	record(t, s, "search_articles", "alzheimer disease", types.InvocationOK, 0)
	record(t, s, "find_related_articles", "38519861", types.InvocationOK, 1)
	record(t, s, "get_abstract", "38519861", types.InvocationError, 2)

	got, err := s.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d invocations, want 3", len(got))
	}
	// Most recent first.
	if got[0].Tool != "get_abstract" || got[2].Tool != "search_articles" {
		t.Errorf("order = [%s %s %s]", got[0].Tool, got[1].Tool, got[2].Tool)
	}
	if got[0].Status != types.InvocationError || got[0].DurationMS != 120 {
		t.Errorf("fields = %+v", got[0])
	}
	if !got[2].StartedAt.Equal(testBase) {
		t.Errorf("started_at = %v, want %v", got[2].StartedAt, testBase)
	}
}

func TestRecordAssignsID(t *testing.T) {
	s := testSetup(t)
	inv := record(t, s, "search_articles", "x", types.InvocationOK, 0)
	if inv.ID == "" {
		t.Fatal("no id assigned")
	}
	if _, err := uuid.Parse(inv.ID); err != nil {
		t.Errorf("id %q is not a UUID: %v", inv.ID, err)
	}

	explicit, err := s.Record(context.Background(), types.Invocation{
		ID:   "my-own-id",
		Tool: "get_abstract",
	})
	if err != nil {
		t.Fatal(err)
	}
	if explicit.ID != "my-own-id" {
		t.Errorf("id = %q, want the caller's id kept", explicit.ID)
	}
	if explicit.StartedAt.IsZero() {
		t.Error("zero start time not filled in")
	}
}

func TestRetrieveFilters(t *testing.T) {
	s := testSetup(t)
	record(t, s, "search_articles", "alzheimer", types.InvocationOK, 0)
	record(t, s, "search_articles", "crispr", types.InvocationError, 1)
	record(t, s, "find_related_articles", "38519861", types.InvocationOK, 2)

	byTool, err := s.Retrieve(context.Background(), QueryOptions{Tool: "search_articles"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(byTool) != 2 {
		t.Errorf("tool filter returned %d, want 2", len(byTool))
	}

	byStatus, err := s.Retrieve(context.Background(), QueryOptions{Status: types.InvocationError})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].Argument != "crispr" {
		t.Errorf("status filter = %+v", byStatus)
	}

	both, err := s.Retrieve(context.Background(), QueryOptions{Tool: "search_articles", Status: types.InvocationOK})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(both) != 1 || both[0].Argument != "alzheimer" {
		t.Errorf("combined filter = %+v", both)
	}
}

func TestRetrieveFullText(t *testing.T) {
	s := testSetup(t)
	record(t, s, "search_articles", "alzheimer disease biomarkers", types.InvocationOK, 0)
	record(t, s, "search_articles", "crispr delivery", types.InvocationOK, 1)
	if _, err := s.Record(context.Background(), types.Invocation{
		Tool:     "find_related_articles",
		Argument: "38519861",
		Status:   types.InvocationDegraded,
		Detail:   "summary endpoint returned 502",
	}); err != nil {
		t.Fatal(err)
	}

	matches, err := s.Retrieve(context.Background(), QueryOptions{Query: "alzheimer"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(matches) != 1 || matches[0].Argument != "alzheimer disease biomarkers" {
		t.Errorf("matches = %+v", matches)
	}

	// Detail text is searchable too.
	matches, err = s.Retrieve(context.Background(), QueryOptions{Query: "502"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(matches) != 1 || matches[0].Status != types.InvocationDegraded {
		t.Errorf("matches = %+v", matches)
	}
}

func TestRetrieveLimit(t *testing.T) {
	s := testSetup(t)
	for i := 0; i < 5; i++ {
		record(t, s, "search_articles", "q", types.InvocationOK, i)
	}

	got, err := s.Retrieve(context.Background(), QueryOptions{MaxResults: 2})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if !got[0].StartedAt.After(got[1].StartedAt) {
		t.Error("limit did not keep the most recent invocations")
	}
}

func TestExportYAML(t *testing.T) {
	s := testSetup(t)
	record(t, s, "search_articles", "alzheimer", types.InvocationOK, 0)
	record(t, s, "get_abstract", "38519861", types.InvocationError, 1)

	if err := s.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.historyDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var exported []types.Invocation
	if err := yaml.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(exported) != 2 {
		t.Errorf("exported %d invocations, want 2", len(exported))
	}
}

func TestExportJSONFiltered(t *testing.T) {
	s := testSetup(t)
	record(t, s, "search_articles", "alzheimer", types.InvocationOK, 0)
	record(t, s, "get_abstract", "38519861", types.InvocationError, 1)

	if err := s.ExportJSON(context.Background(), QueryOptions{Status: types.InvocationError}); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.historyDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var exported []types.Invocation
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(exported) != 1 || exported[0].Tool != "get_abstract" {
		t.Errorf("exported = %+v", exported)
	}
}

func TestReopenExistingStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	cfg := types.HistoryConfig{HistoryDir: dir}

	first, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Record(context.Background(), types.Invocation{Tool: "search_articles", Status: types.InvocationOK}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer second.Close()

	got, err := second.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d invocations after reopen, want 1", len(got))
	}
}
