package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"fim-go/internal/fim"
)

// baselineArchiveName is the archive item that holds baseline exports.
const baselineArchiveName = "baseline"

type baselineExport struct {
	AgentID    string        `json:"agent_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Entries    []exportEntry `json:"entries"`
}

type exportEntry struct {
	Path       string `json:"path"`
	Checksum   string `json:"checksum"`
	WatchIndex int    `json:"watch_index"`
}

func (a *FIMApp) requireArchive() (fim.Archive, error) {
	if a.archive == nil {
		return nil, fmt.Errorf("no archive configured")
	}
	return a.archive, nil
}

// ExportBaseline encrypts the current baseline and stores it in the archive
// under the next version number. Returns the version written and the number
// of entries.
func (a *FIMApp) ExportBaseline() (int64, int, error) {
	arc, err := a.requireArchive()
	if err != nil {
		return 0, 0, err
	}
	if !a.encryptor.IsConfigured() {
		return 0, 0, fmt.Errorf("encryption keys are not configured: run 'fimd keys init'")
	}

	entries := a.store.Snapshot()
	doc := baselineExport{
		AgentID:    a.cfg.AgentID,
		ExportedAt: time.Now().UTC(),
		Entries:    make([]exportEntry, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, exportEntry{Path: e.Path, Checksum: e.Checksum, WatchIndex: e.WatchIndex})
	}
	plain, err := json.Marshal(doc)
	if err != nil {
		return 0, 0, fmt.Errorf("encoding baseline: %w", err)
	}

	var sealed bytes.Buffer
	if err := a.encryptor.Encrypt(bytes.NewReader(plain), &sealed); err != nil {
		return 0, 0, fmt.Errorf("encrypting baseline: %w", err)
	}

	current, err := arc.Version(a.cfg.AgentID, baselineArchiveName)
	if err != nil {
		return 0, 0, fmt.Errorf("checking archive version: %w", err)
	}
	version := current + 1
	if err := arc.Put(a.cfg.AgentID, baselineArchiveName, &sealed, int64(sealed.Len()), version); err != nil {
		return 0, 0, fmt.Errorf("uploading baseline: %w", err)
	}

	a.logger.Info("baseline exported", "version", version, "entries", len(entries))
	return version, len(entries), nil
}

// ImportBaseline fetches the baseline exported by fromAgent (this agent when
// empty), decrypts it and replaces the local baseline with it.
func (a *FIMApp) ImportBaseline(fromAgent, passphrase string) (int, error) {
	arc, err := a.requireArchive()
	if err != nil {
		return 0, err
	}
	if fromAgent == "" {
		fromAgent = a.cfg.AgentID
	}

	var sealed bytes.Buffer
	if err := arc.Get(fromAgent, baselineArchiveName, &sealed); err != nil {
		return 0, fmt.Errorf("downloading baseline: %w", err)
	}

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}
	var plain bytes.Buffer
	if err := dc.Decrypt(&sealed, &plain); err != nil {
		return 0, fmt.Errorf("decrypting baseline: %w", err)
	}

	var doc baselineExport
	if err := json.Unmarshal(plain.Bytes(), &doc); err != nil {
		return 0, fmt.Errorf("decoding baseline: %w", err)
	}

	entries := make([]fim.Entry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		entries = append(entries, fim.Entry{Path: e.Path, Checksum: e.Checksum, WatchIndex: e.WatchIndex})
	}
	if err := a.db.SaveBaseline(entries); err != nil {
		return 0, fmt.Errorf("saving imported baseline: %w", err)
	}
	a.store.Load(entries)
	a.hasBaseline = true

	a.logger.Info("baseline imported", "from", fromAgent, "entries", len(entries))
	return len(entries), nil
}
