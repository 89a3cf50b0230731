// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// sessionPath names a run's output file after the moment the session
// started, so the file is fixed for the run's lifetime and a later run
// can never overwrite it.
func sessionPath(dir string, startedAt time.Time) string {
	return filepath.Join(dir, startedAt.Format("20060102-150405")+".csv")
}

// Flush writes the records as a CSV table at path, creating the output
// directory if needed. The table has one row per record in arrival order
// and one column per channel (Ch0..ChN-1) plus a CRC column that is true
// when the packet failed its CRC check. Failures are reported as
// ErrPersistence.
func Flush(records []Record, channelCount int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating output directory: %s", ErrPersistence, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %s", ErrPersistence, path, err)
	}

	w := csv.NewWriter(f)
	header := make([]string, channelCount+1)
	for i := 0; i < channelCount; i++ {
		header[i] = "Ch" + strconv.Itoa(i)
	}
	header[channelCount] = "CRC"
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %s", ErrPersistence, path, err)
	}
	row := make([]string, channelCount+1)
	for _, record := range records {
		for i, v := range record.Channels {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		row[channelCount] = strconv.FormatBool(!record.Valid)
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("%w: writing %s: %s", ErrPersistence, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %s", ErrPersistence, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %s", ErrPersistence, path, err)
	}
	return nil
}
