package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

const journalVersion = 1

// Snapshot is the state of a combat at the end of one turn.
type Snapshot struct {
	Turn  int
	Phase state.CombatPhase
	// HP maps combatant data ids to remaining hp. Dead characters are absent.
	HP         map[string]int
	Checksum   string
	RecordedAt time.Time
}

// Journal records one snapshot per turn of a combat.
type Journal struct {
	SessionID string
	Snapshots []Snapshot
	mu        sync.RWMutex
}

// NewJournal creates an empty journal.
func NewJournal(sessionID string) *Journal {
	return &Journal{SessionID: sessionID}
}

// Record appends a snapshot.
func (j *Journal) Record(s Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Snapshots = append(j.Snapshots, s)
}

// Size returns the number of recorded snapshots.
func (j *Journal) Size() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.Snapshots)
}

// At returns the snapshot at index.
func (j *Journal) At(index int) (Snapshot, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if index < 0 || index >= len(j.Snapshots) {
		return Snapshot{}, false
	}
	return j.Snapshots[index], true
}

// Last returns the most recent snapshot.
func (j *Journal) Last() (Snapshot, bool) {
	return j.At(j.Size() - 1)
}

// SaveToFile writes the journal to <directory>/<session>.journal as a
// gzipped gob stream and returns the file path.
func (j *Journal) SaveToFile(directory string) (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	filename := journalPath(directory, j.SessionID)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := journalMetadata{
		SessionID:     j.SessionID,
		Timestamp:     time.Now(),
		Version:       journalVersion,
		SnapshotCount: len(j.Snapshots),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range j.Snapshots {
		if err := encoder.Encode(&j.Snapshots[i]); err != nil {
			return "", fmt.Errorf("failed to encode snapshot %d: %w", i, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to flush journal: %w", err)
	}
	return filename, nil
}

// LoadJournalFromFile reads a journal written by SaveToFile.
func LoadJournalFromFile(directory, sessionID string) (*Journal, error) {
	file, err := os.Open(journalPath(directory, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)
	var metadata journalMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != journalVersion {
		return nil, fmt.Errorf("unsupported journal version: %d", metadata.Version)
	}

	j := NewJournal(metadata.SessionID)
	for i := range metadata.SnapshotCount {
		var s Snapshot
		if err := decoder.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %d: %w", i, err)
		}
		j.Snapshots = append(j.Snapshots, s)
	}
	return j, nil
}

type journalMetadata struct {
	SessionID     string
	Timestamp     time.Time
	Version       int
	SnapshotCount int
}

func journalPath(directory, sessionID string) string {
	return filepath.Join(directory, sessionID+".journal")
}

// record appends the current combat state to the session's journal.
func (e *Engine) record(sessionID string) error {
	e.mu.Lock()
	j := e.journals[sessionID]
	e.mu.Unlock()
	if j == nil {
		return nil
	}

	status, _, err := e.combat(sessionID)
	if err != nil {
		return err
	}
	combatants, err := e.store.EntitiesWith(sessionID, state.TypeHealth)
	if err != nil {
		return err
	}
	hp := make(map[string]int, len(combatants))
	for _, ent := range combatants {
		health, _, _ := state.First[state.Health](ent)
		if ch, _, ok := state.First[state.CharacterStatus](ent); ok {
			hp[ch.DataID] = health.HP
		} else if en, _, ok := state.First[state.EnemyStatus](ent); ok {
			hp[en.DataID] = health.HP
		}
	}
	checksum, err := e.store.Checksum(sessionID)
	if err != nil {
		return err
	}

	j.Record(Snapshot{
		Turn:       status.Turn,
		Phase:      status.Phase,
		HP:         hp,
		Checksum:   checksum,
		RecordedAt: time.Now(),
	})
	e.logger.Debug("recorded journal snapshot",
		zap.String("session_id", sessionID),
		zap.Int("turn", status.Turn),
		zap.Int("snapshots", j.Size()),
	)
	return nil
}

// saveJournal writes a finished combat's journal when a directory is set.
// Failures are logged; the combat outcome stands either way.
func (e *Engine) saveJournal(sessionID string) {
	if e.journalDir == "" {
		return
	}
	j, ok := e.Journal(sessionID)
	if !ok {
		return
	}
	path, err := j.SaveToFile(e.journalDir)
	if err != nil {
		e.logger.Warn("failed to save journal",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}
	e.logger.Info("saved journal",
		zap.String("session_id", sessionID),
		zap.String("path", path),
		zap.Int("snapshots", j.Size()),
	)
}
