package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// writeRecord atomically writes a sandbox record. The record is encoded to
// a temporary file in the same directory, fsynced, and renamed into place.
// Readers never see a partial write.
func writeRecord(path string, sb *Sandbox) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(sb); err != nil {
		return fmt.Errorf("encoding jail record: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+recordFile+".*")
	if err != nil {
		return fmt.Errorf("creating temporary record: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temporary record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temporary record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming record into place: %w", err)
	}
	success = true

	// Make the rename durable.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// readRecord loads a sandbox record. A missing file is reported with an
// error wrapping os.ErrNotExist.
func readRecord(path string) (*Sandbox, error) {
	var sb Sandbox
	if _, err := toml.DecodeFile(path, &sb); err != nil {
		return nil, err
	}
	return &sb, nil
}
