package handler

import (
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/osse101/BrandishRaffle_Go/internal/database"
)

// VersionInfo identifies the deployed raffle build and the schema it expects
type VersionInfo struct {
	Service       string `json:"service"`
	Version       string `json:"version"`
	SchemaVersion int64  `json:"schema_version"`
	GoVersion     string `json:"go_version"`
	BuildTime     string `json:"build_time,omitempty"`
	GitCommit     string `json:"git_commit,omitempty"`
}

// Build-time variables (injected via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unset"
)

// ServiceName is reported by the version endpoint
const ServiceName = "brandish-raffle"

// HandleVersion reports the build and the embedded migration level, so a
// deploy can be checked against /readyz's schema check.
// @Summary Build information
// @Tags health
// @Produce json
// @Success 200 {object} VersionInfo
// @Router /version [get]
func HandleVersion() http.HandlerFunc {
	info := VersionInfo{
		Service:   ServiceName,
		Version:   resolveVersion(),
		GoVersion: runtime.Version(),
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
	schema, err := database.LatestMigration()
	if err != nil {
		slog.Error("Failed to read embedded migrations", "error", err)
	}
	info.SchemaVersion = schema

	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, info)
	}
}

// resolveVersion prefers the ldflags value, then $VERSION
func resolveVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
