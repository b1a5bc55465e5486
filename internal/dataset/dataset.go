// Package dataset maintains the authoritative, git-committed record
// collection: a JSONL file under the repository, status enforcement on
// save, and time-travel queries through git history.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/revcore/revcore/internal/gitrepo"
	"github.com/revcore/revcore/internal/record"
)

// RecordsPath is the records file location relative to the repository root.
const RecordsPath = ".revcore/records.jsonl"

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines
// (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Dataset is the versioned record store of one repository.
type Dataset struct {
	root string
	repo *gitrepo.Repo
}

// Open locates the git repository containing path and returns its dataset.
func Open(path string) (*Dataset, error) {
	repo, err := gitrepo.Open(path)
	if err != nil {
		return nil, err
	}
	return &Dataset{root: repo.Root(), repo: repo}, nil
}

// New creates a dataset over an explicit root and git handle. A nil repo
// disables the history-based checks and queries.
func New(root string, repo *gitrepo.Repo) *Dataset {
	return &Dataset{root: root, repo: repo}
}

// Root returns the repository root the dataset lives under.
func (d *Dataset) Root() string {
	return d.root
}

func (d *Dataset) recordsFile() string {
	return filepath.Join(d.root, RecordsPath)
}

// Records reads all records from the working tree.
func (d *Dataset) Records() ([]record.Record, error) {
	f, err := os.Open(d.recordsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()
	return parseRecords(f)
}

// parseRecords parses JSONL content into records.
func parseRecords(r io.Reader) ([]record.Record, error) {
	var records []record.Record
	scanner := bufio.NewScanner(r)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}
	return records, nil
}

// Save validates and writes the full record set, replacing the records
// file. Every record must carry a valid status and at least one origin, and
// any status change relative to the committed head version must follow the
// transition graph.
func (d *Dataset) Save(records []record.Record) error {
	seen := make(map[string]bool, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			return fmt.Errorf("record %d has no ID", i)
		}
		if seen[rec.ID] {
			return fmt.Errorf("duplicate record ID %s", rec.ID)
		}
		seen[rec.ID] = true
		if !rec.Status.Valid() {
			return fmt.Errorf("record %s: %w", rec.ID, record.ErrInvalidState)
		}
		if len(rec.Origins) == 0 {
			return fmt.Errorf("record %s has no origin", rec.ID)
		}
	}

	if err := d.checkTransitions(records); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(d.recordsFile()), 0o755); err != nil {
		return fmt.Errorf("creating records directory: %w", err)
	}
	f, err := os.Create(d.recordsFile())
	if err != nil {
		return fmt.Errorf("creating records file: %w", err)
	}
	defer f.Close()

	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", records[i].ID, err)
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing record %s: %w", records[i].ID, err)
		}
	}
	return nil
}

// checkTransitions validates status changes against the committed head
// version of the records file. A repository without commits has nothing to
// validate against.
func (d *Dataset) checkTransitions(records []record.Record) error {
	if d.repo == nil {
		return nil
	}
	head, err := d.repo.CurrentHead()
	if err != nil {
		if errors.Is(err, gitrepo.ErrNoCommits) {
			return nil
		}
		return err
	}
	committed, err := d.RecordsAtCommit(head)
	if err != nil {
		return err
	}

	previous := make(map[string]record.State, len(committed))
	for i := range committed {
		previous[committed[i].ID] = committed[i].Status
	}

	for i := range records {
		rec := &records[i]
		before, ok := previous[rec.ID]
		if !ok || before == rec.Status {
			continue
		}
		if err := record.CheckTransition(before, rec.Status); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// RecordsAtCommit returns the records as committed at the given reference.
func (d *Dataset) RecordsAtCommit(commitRef string) ([]record.Record, error) {
	if d.repo == nil {
		return nil, gitrepo.ErrNotGitRepo
	}
	data, err := d.repo.ReadFileAtCommit(RecordsPath, commitRef)
	if err != nil {
		return nil, err
	}
	return parseRecords(bytes.NewReader(data))
}

// ChangedRecords returns the records whose serialized form at the given
// commit differs from the parent commit, including records added there.
func (d *Dataset) ChangedRecords(commitRef string) ([]record.Record, error) {
	current, err := d.RecordsAtCommit(commitRef)
	if err != nil {
		return nil, err
	}

	parent, err := d.RecordsAtCommit(commitRef + "~1")
	if errors.Is(err, gitrepo.ErrCommitNotFound) {
		// Root commit: everything is new.
		return current, nil
	}
	if err != nil {
		return nil, err
	}

	before := make(map[string]string, len(parent))
	for i := range parent {
		data, err := json.Marshal(&parent[i])
		if err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", parent[i].ID, err)
		}
		before[parent[i].ID] = string(data)
	}

	var changed []record.Record
	for i := range current {
		data, err := json.Marshal(&current[i])
		if err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", current[i].ID, err)
		}
		if before[current[i].ID] != string(data) {
			changed = append(changed, current[i])
		}
	}
	return changed, nil
}

// StatusChange is one step in a record's lifecycle, recovered from git
// history.
type StatusChange struct {
	CommitSHA string
	CommitMsg string
	Status    record.State
}

// History returns a record's status trail from git history, newest first.
// Consecutive commits with an unchanged status collapse into one step.
func (d *Dataset) History(id string) ([]StatusChange, error) {
	if d.repo == nil {
		return nil, gitrepo.ErrNotGitRepo
	}
	commits, err := d.repo.IterCommits(RecordsPath)
	if err != nil {
		return nil, err
	}

	var trail []StatusChange
	for _, commit := range commits {
		records, err := d.RecordsAtCommit(commit.SHA)
		if err != nil {
			continue
		}
		idx, found := FindByID(records, id)
		if !found {
			break
		}
		status := records[idx].Status
		if len(trail) > 0 && trail[len(trail)-1].Status == status {
			// Same status as the next-newer commit: keep the oldest
			// commit that carried it.
			trail[len(trail)-1] = StatusChange{
				CommitSHA: gitrepo.ShortSHA(commit.SHA),
				CommitMsg: commit.Message,
				Status:    status,
			}
			continue
		}
		trail = append(trail, StatusChange{
			CommitSHA: gitrepo.ShortSHA(commit.SHA),
			CommitMsg: commit.Message,
			Status:    status,
		})
	}
	return trail, nil
}

// FindByID searches for a record by ID.
func FindByID(records []record.Record, id string) (int, bool) {
	for i := range records {
		if records[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// GenerateUniqueID returns an ID that doesn't conflict with existing
// records. If the base ID exists, appends -2, -3, etc.
func GenerateUniqueID(records []record.Record, baseID string) string {
	if _, found := FindByID(records, baseID); !found {
		return baseID
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseID, i)
		if _, found := FindByID(records, candidate); !found {
			return candidate
		}
	}
}
