package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

type VersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultVersionConfig = VersionConfig{
	CurrentStable: "1.4.0",
	MinSupported:  "1.2.0",
	Deprecated:    "1.1.0",
}

// CheckVersionStatus classifies a node's reported software version against
// the known release line. Unparseable versions are reported as "unknown"
// rather than failing the node.
func CheckVersionStatus(nodeVersion string, config *VersionConfig) (status string, needsUpgrade bool, severity string) {
	if config == nil {
		config = &DefaultVersionConfig
	}

	nodeVersion = strings.TrimPrefix(nodeVersion, "v")

	nodeVer, err := version.NewVersion(nodeVersion)
	if err != nil {
		return "unknown", false, "info"
	}

	current, _ := version.NewVersion(config.CurrentStable)
	minSupported, _ := version.NewVersion(config.MinSupported)
	deprecated, _ := version.NewVersion(config.Deprecated)

	if nodeVer.LessThan(deprecated) {
		return "deprecated", true, "critical"
	}

	if nodeVer.LessThan(minSupported) {
		return "outdated", true, "warning"
	}

	if nodeVer.LessThan(current) {
		return "outdated", true, "info"
	}

	return "current", false, "none"
}

func GetUpgradeMessage(nodeVersion string, config *VersionConfig) string {
	if config == nil {
		config = &DefaultVersionConfig
	}

	_, needsUpgrade, severity := CheckVersionStatus(nodeVersion, config)

	if !needsUpgrade {
		return ""
	}

	switch severity {
	case "critical":
		return "CRITICAL: This version is deprecated and no longer supported. Upgrade to " + config.CurrentStable + " immediately."
	case "warning":
		return "WARNING: This version is outdated. Please upgrade to " + config.CurrentStable + " soon."
	case "info":
		return "INFO: A newer version " + config.CurrentStable + " is available."
	}

	return ""
}
