// Package store implements the Store: the reader/writer-locked, file-backed
// holder of the document tree, translated from
// original_source/minidb/minidb.py's Database class.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kmill/pynomic/bind"
	"github.com/kmill/pynomic/codec"
	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/fuel"
	"github.com/kmill/pynomic/mutate"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/store/rwlock"
	"github.com/kmill/pynomic/value"
)

// Store holds one document tree in memory, backed by a single JSON file.
// All mutating operations commit (write the file) on success, matching
// Database._commit. Remove and Update also roll back (re-read the file,
// discarding the in-memory tree) on failure, matching Database._rollback;
// a failed Insert leaves the in-memory tree unchanged and does not roll back.
type Store struct {
	backingFile string
	lock        *rwlock.RWLock
	log         *slog.Logger

	data value.Value
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger overrides the default logger (slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open constructs a Store backed by backingFile, loading it immediately
// (Database.__init__ calls self.rollback() unconditionally before
// returning, which this reproduces).
func Open(backingFile string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(backingFile)
	if err != nil {
		return nil, &dberr.IoError{Op: "open", Err: err}
	}
	s := &Store{
		backingFile: abs,
		lock:        rwlock.New(),
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.Rollback(); err != nil {
		return nil, err
	}
	return s, nil
}

// Select runs qf against the current tree and returns every match, without
// modifying the tree. If subpath is non-nil, the query runs relative to the
// sub-value located at subpath instead of the tree's root.
func (s *Store) Select(qf *query.QueryFunc, subpath *path.Path) ([]bind.Result, error) {
	s.lock.RLock()
	s.log.Debug("store: read lock acquired")
	defer func() {
		s.lock.RUnlock()
		s.log.Debug("store: read lock released")
	}()
	return mutate.Select(s.data, qf, subpath, fuel.New(fuel.Default))
}

// InsertOptions controls Insert's behavior when the destination already
// exists, or does not exist at all.
type InsertOptions struct {
	// Append, if true, appends v to the Array located at p (creating an
	// empty Array there first if nothing exists yet), instead of setting v
	// outright.
	Append bool
	// Overwrite, if true, allows Insert to replace an existing value at p
	// when Append is false.
	Overwrite bool
}

// Insert attaches v at p, committing on success. If subpath is non-nil, p is
// resolved relative to subpath instead of the tree's root. The combined
// location must have at least one step (the database root itself cannot be
// replaced by Insert). original_source: Database.insert. Insert commits in
// every success case, including Append, whereas the original source commits
// only in its non-append branch.
func (s *Store) Insert(p *path.Path, v value.Value, opts InsertOptions, subpath *path.Path) error {
	if !value.Allowed(v) {
		return &dberr.TypeRejectedError{Got: v}
	}
	steps := subpath.Concat(p).Steps()
	if len(steps) == 0 {
		return &dberr.InconsistentDataError{Detail: "cannot insert at the root path"}
	}

	s.lock.Lock()
	s.log.Debug("store: write lock acquired", "op", "insert")
	defer func() {
		s.lock.Unlock()
		s.log.Debug("store: write lock released", "op", "insert")
	}()

	newTree, err := s.insertLocked(steps, v, opts)
	if err != nil {
		return err
	}
	s.data = newTree
	return s.commitLocked()
}

func (s *Store) insertLocked(steps []path.Step, v value.Value, opts InsertOptions) (value.Value, error) {
	parent := steps[:len(steps)-1]
	last := steps[len(steps)-1]
	return descendInsert(s.data, parent, 0, last, v, opts)
}

func descendInsert(container value.Value, parent []path.Step, i int, last path.Step, v value.Value, opts InsertOptions) (value.Value, error) {
	if i == len(parent) {
		return insertIntoContainer(container, last, v, opts)
	}
	step := parent[i]
	child, err := getChild(container, step)
	if err != nil {
		return nil, err
	}
	newChild, err := descendInsert(child, parent, i+1, last, v, opts)
	if err != nil {
		return nil, err
	}
	return replaceChild(container, step, newChild)
}

func insertIntoContainer(container value.Value, step path.Step, v value.Value, opts InsertOptions) (value.Value, error) {
	if opts.Append {
		cur, err := getChild(container, step)
		var arr value.Array
		if err == nil {
			a, ok := cur.(value.Array)
			if !ok {
				return nil, &dberr.NotAListError{Got: cur}
			}
			arr = a
		}
		newArr := make(value.Array, 0, len(arr)+1)
		newArr = append(newArr, arr...)
		newArr = append(newArr, v)
		return replaceChild(container, step, newArr)
	}
	if !opts.Overwrite {
		if _, err := getChild(container, step); err == nil {
			key := step.Key()
			if step.IsIndex() {
				key = step.String()
			}
			return nil, &dberr.PathConflictError{Key: key}
		}
	}
	return replaceChild(container, step, v)
}

// Remove runs qf against the current tree and deletes every match,
// committing on success or rolling back (re-reading the backing file) on
// failure. If subpath is non-nil, the query runs relative to the sub-value
// located at subpath instead of the tree's root. On success the write lock
// is downgraded to a read lock before commit's disk I/O, so concurrent
// readers are not blocked while the file is written.
// original_source: Database.remove's try/except around queryfunc.query.remove.
func (s *Store) Remove(qf *query.QueryFunc, subpath *path.Path) (int, error) {
	s.lock.Lock()
	s.log.Debug("store: write lock acquired", "op", "remove")

	newTree, n, err := mutate.Remove(s.data, qf, subpath, fuel.New(fuel.Default))
	if err != nil {
		s.log.Warn("store: rolling back after failed remove", "error", err)
		rerr := s.rollbackLocked()
		s.lock.Unlock()
		s.log.Debug("store: write lock released", "op", "remove")
		if rerr != nil {
			return 0, rerr
		}
		return 0, err
	}
	s.data = newTree
	s.lock.Downgrade()
	s.log.Debug("store: write lock downgraded to read", "op", "remove")
	cerr := s.commitLocked()
	s.lock.RUnlock()
	s.log.Debug("store: read lock released", "op", "remove")
	if cerr != nil {
		return 0, cerr
	}
	return n, nil
}

// Update runs qf against the current tree and rewrites every match per
// changes, committing on success or rolling back on failure. If subpath is
// non-nil, the query runs relative to the sub-value located at subpath
// instead of the tree's root. On success the write lock is downgraded to a
// read lock before commit, the same discipline Remove uses. There is no
// original_source analog; Update is a fresh addition.
func (s *Store) Update(qf *query.QueryFunc, changes []mutate.Change, subpath *path.Path) (int, error) {
	s.lock.Lock()
	s.log.Debug("store: write lock acquired", "op", "update")

	newTree, n, err := mutate.Update(s.data, qf, changes, subpath, fuel.New(fuel.Default))
	if err != nil {
		s.log.Warn("store: rolling back after failed update", "error", err)
		rerr := s.rollbackLocked()
		s.lock.Unlock()
		s.log.Debug("store: write lock released", "op", "update")
		if rerr != nil {
			return 0, rerr
		}
		return 0, err
	}
	s.data = newTree
	s.lock.Downgrade()
	s.log.Debug("store: write lock downgraded to read", "op", "update")
	cerr := s.commitLocked()
	s.lock.RUnlock()
	s.log.Debug("store: read lock released", "op", "update")
	if cerr != nil {
		return 0, cerr
	}
	return n, nil
}

// Commit writes the in-memory tree to the backing file via a temp-file
// write and atomic rename, the Go translation of Database._commit. It runs
// under a read lock only: the in-memory tree is already settled by the time
// Commit is called standalone, so serializing it need not exclude
// concurrent readers.
func (s *Store) Commit() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.commitLocked()
}

func (s *Store) commitLocked() error {
	tmp := s.backingFile + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &dberr.IoError{Op: "commit", Err: err}
	}
	if err := codec.Encode(f, s.data); err != nil {
		f.Close()
		os.Remove(tmp)
		return &dberr.IoError{Op: "commit", Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return &dberr.IoError{Op: "commit", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &dberr.IoError{Op: "commit", Err: err}
	}
	if err := os.Rename(tmp, s.backingFile); err != nil {
		return &dberr.IoError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback discards the in-memory tree and reloads it from the backing
// file, or resets it to an empty Map if the file does not yet exist. This
// is also what Open calls before returning, the Go translation of
// Database.__init__ calling self.rollback() unconditionally.
func (s *Store) Rollback() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.rollbackLocked()
}

func (s *Store) rollbackLocked() error {
	f, err := os.Open(s.backingFile)
	if os.IsNotExist(err) {
		s.data = value.Map{}
		return nil
	} else if err != nil {
		return &dberr.IoError{Op: "rollback", Err: err}
	}
	defer f.Close()

	v, err := codec.Decode(f)
	if err != nil && err != io.EOF {
		return &dberr.IoError{Op: "rollback", Err: err}
	}
	if v == nil {
		v = value.Map{}
	}
	s.data = v
	return nil
}

func getChild(container value.Value, step path.Step) (value.Value, error) {
	if step.IsIndex() {
		arr, ok := container.(value.Array)
		if !ok || step.Index() < 0 || step.Index() >= len(arr) {
			return nil, &path.ErrPathNotFound{Step: step, Got: container}
		}
		return arr[step.Index()], nil
	}
	m, ok := container.(value.Map)
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: container}
	}
	v, ok := m[step.Key()]
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: container}
	}
	return v, nil
}

func replaceChild(container value.Value, step path.Step, v value.Value) (value.Value, error) {
	if step.IsIndex() {
		arr, ok := container.(value.Array)
		if !ok {
			return nil, fmt.Errorf("store: cannot index into %T", container)
		}
		out := make(value.Array, len(arr))
		copy(out, arr)
		if step.Index() == len(out) {
			out = append(out, v)
		} else if step.Index() >= 0 && step.Index() < len(out) {
			out[step.Index()] = v
		} else {
			return nil, &path.ErrPathNotFound{Step: step, Got: container}
		}
		return out, nil
	}
	m, _ := container.(value.Map)
	out := make(value.Map, len(m)+1)
	for k, vv := range m {
		out[k] = vv
	}
	out[step.Key()] = v
	return out, nil
}
