package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/rsa-tracker/src/eventservices"
)

var rootCmd = &cobra.Command{
	Use:   "exportaudit",
	Short: "Export the tracker audit log to CSV",
	Long:  `This program reads the json-lines audit log written by the tracker and exports it to CSV.`,
	Run: func(cmd *cobra.Command, args []string) {
		auditLog, err := cmd.Flags().GetString("audit-log")
		if err != nil {
			log.Fatalf("error getting audit-log: %v", err)
		}

		out, err := cmd.Flags().GetString("out")
		if err != nil {
			log.Fatalf("error getting out: %v", err)
		}

		records, err := eventservices.ReadAuditLog(auditLog)
		if err != nil {
			log.Fatalf("error reading audit log: %v", err)
		}

		if len(records) == 0 {
			log.Warnf("no audit records found in %s", auditLog)
			return
		}

		if err := eventservices.WriteAuditCSV(records, out); err != nil {
			log.Fatalf("error writing csv: %v", err)
		}
	},
}

func main() {
	rootCmd.Flags().String("audit-log", "audit.log", "Path to the json-lines audit log")
	rootCmd.Flags().String("out", "audit.csv", "Path of the CSV file to write")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("error executing command: %v", err)
	}
}
