package store_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/store"
	"github.com/kmill/pynomic/value"
)

func openEmpty(t *testing.T) (*store.Store, string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "db.json")
	s, err := store.Open(file)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, file
}

func qfAll(key string) *query.QueryFunc {
	return &query.QueryFunc{Var: "db", Query: query.Get(&query.Var{Name: "db"}, key)}
}

func TestOpenOfMissingFileStartsEmpty(t *testing.T) {
	s, _ := openEmpty(t)
	results, err := s.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: &query.Var{Name: "db"}}}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if _, ok := results[0].Value.(value.Map); !ok {
		t.Errorf("root value = %T, want value.Map", results[0].Value)
	}
}

func TestInsertRejectsRootPath(t *testing.T) {
	s, _ := openEmpty(t)
	err := s.Insert(path.Root, value.Int(1), store.InsertOptions{}, nil)
	if _, ok := err.(*dberr.InconsistentDataError); !ok {
		t.Errorf("Insert at root: got %T (%v), want *dberr.InconsistentDataError", err, err)
	}
}

func TestInsertThenSelectThenPersists(t *testing.T) {
	s, file := openEmpty(t)
	if err := s.Insert(path.Of("name"), value.Str("ann"), store.InsertOptions{}, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	results, err := s.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: query.Get(&query.Var{Name: "db"}, "name")}}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(results) != 1 || results[0].Value != value.Str("ann") {
		t.Fatalf("got %v, want [Str(ann)]", results)
	}

	if _, err := os.Stat(file); err != nil {
		t.Errorf("backing file not created by commit: %v", err)
	}

	reopened, err := store.Open(file)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	results, err = reopened.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: query.Get(&query.Var{Name: "db"}, "name")}}, nil)
	if err != nil {
		t.Fatalf("Select after reopen: %v", err)
	}
	if len(results) != 1 || results[0].Value != value.Str("ann") {
		t.Fatalf("after reopen got %v, want [Str(ann)]", results)
	}
}

func TestInsertWithoutOverwriteConflicts(t *testing.T) {
	s, _ := openEmpty(t)
	if err := s.Insert(path.Of("k"), value.Int(1), store.InsertOptions{}, nil); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	err := s.Insert(path.Of("k"), value.Int(2), store.InsertOptions{}, nil)
	if _, ok := err.(*dberr.PathConflictError); !ok {
		t.Errorf("second Insert without Overwrite: got %T (%v), want *dberr.PathConflictError", err, err)
	}
}

func TestInsertWithOverwriteReplaces(t *testing.T) {
	s, _ := openEmpty(t)
	if err := s.Insert(path.Of("k"), value.Int(1), store.InsertOptions{}, nil); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := s.Insert(path.Of("k"), value.Int(2), store.InsertOptions{Overwrite: true}, nil); err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	results, err := s.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: query.Get(&query.Var{Name: "db"}, "k")}}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if results[0].Value != value.Int(2) {
		t.Errorf("k = %v, want Int(2)", results[0].Value)
	}
}

func TestInsertAppendCreatesThenGrows(t *testing.T) {
	s, _ := openEmpty(t)
	if err := s.Insert(path.Of("log"), value.Str("a"), store.InsertOptions{Append: true}, nil); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := s.Insert(path.Of("log"), value.Str("b"), store.InsertOptions{Append: true}, nil); err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	results, err := s.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: query.Get(&query.Var{Name: "db"}, "log")}}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	arr, ok := results[0].Value.(value.Array)
	if !ok || len(arr) != 2 || arr[0] != value.Str("a") || arr[1] != value.Str("b") {
		t.Fatalf("log = %v, want [a, b]", results[0].Value)
	}
}

func TestRemoveRollsBackOnFailure(t *testing.T) {
	s, file := openEmpty(t)
	if err := s.Insert(path.Of("x"), value.Int(1), store.InsertOptions{}, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	before, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	qf := &query.QueryFunc{Var: "db", Query: &query.Return{Value: query.Lit(value.Int(42))}}
	if _, err := s.Remove(qf, nil); err == nil {
		t.Fatal("Remove of a pathless result should fail")
	}

	after, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("backing file changed after a failed Remove: before=%q after=%q", before, after)
	}

	results, err := s.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: query.Get(&query.Var{Name: "db"}, "x")}}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if results[0].Value != value.Int(1) {
		t.Errorf("in-memory tree not rolled back: x = %v, want Int(1)", results[0].Value)
	}
}

func TestRemoveDeletesMatch(t *testing.T) {
	s, _ := openEmpty(t)
	if err := s.Insert(path.Of("x"), value.Int(1), store.InsertOptions{}, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	n, err := s.Remove(qfAll("x"), nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	results, err := s.Select(&query.QueryFunc{Var: "db", Query: &query.Return{Value: &query.Var{Name: "db"}}}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, ok := results[0].Value.(value.Map)["x"]; ok {
		t.Error("x should have been removed")
	}
}

func TestConcurrentReadersDoNotBlockEachOther(t *testing.T) {
	s, _ := openEmpty(t)
	if err := s.Insert(path.Of("x"), value.Int(1), store.InsertOptions{}, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Select(qfAll("x"), nil); err != nil {
				t.Errorf("Select: %v", err)
			}
		}()
	}
	wg.Wait()
}
