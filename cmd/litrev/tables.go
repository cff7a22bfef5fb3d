package main

import (
	"github.com/matsen/litrev/internal/record"
	"github.com/matsen/litrev/internal/storage"
)

// writeTable writes t and logs where it went.
func writeTable(path, format string, t record.Table) error {
	if err := storage.WriteTable(path, format, t); err != nil {
		return err
	}
	log.WithField("path", path).Infof("wrote %d rows", t.Len())
	return nil
}
