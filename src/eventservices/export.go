package eventservices

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
)

// ReadAuditLog parses the json-lines audit log written by the audit
// writer. Blank lines are skipped; a malformed line aborts the read.
func ReadAuditLog(path string) ([]*eventmodels.AuditRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadAuditLog: failed to open %s: %w", path, err)
	}

	defer f.Close()

	var records []*eventmodels.AuditRecord

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo += 1

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record eventmodels.AuditRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("ReadAuditLog: failed to parse line %d: %w", lineNo, err)
		}

		records = append(records, &record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ReadAuditLog: scan failed: %w", err)
	}

	return records, nil
}

// WriteAuditCSV exports audit records to a csv file at outPath, creating
// parent directories as needed.
func WriteAuditCSV(records []*eventmodels.AuditRecord, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("WriteAuditCSV: failed to create directory: %w", err)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("WriteAuditCSV: error creating CSV file: %w", err)
	}

	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("WriteAuditCSV: error marshalling file: %w", err)
	}

	log.Infof("Exported %d audit records to %s", len(records), outPath)

	return nil
}
