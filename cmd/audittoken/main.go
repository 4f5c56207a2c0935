// Command audittoken mints a bearer token for the audit API using the
// server's configured signing secret. Meant for operators granting
// auditors access.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/luminapos/corrispettivi/internal/utils"
	"github.com/luminapos/corrispettivi/pkg/config"
)

func main() {
	auditorID := flag.String("auditor", "", "identifier of the auditor the token is issued to")
	flag.Parse()

	if *auditorID == "" {
		fmt.Fprintln(os.Stderr, "usage: audittoken -auditor <id>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	token, err := utils.GenerateAuditorJWT(*auditorID, cfg.AuditJWTSecret, cfg.AuditJWTExpiry, cfg.AuditJWTIssuer)
	if err != nil {
		slog.Error("Failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(token)
}
