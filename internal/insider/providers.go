package insider

import (
	"strings"

	"github.com/five82/splashwatch/internal/software"
)

const (
	DefaultJamfLogPath  = "/var/log/jamf.log"
	DefaultMunkiLogPath = "/Library/Managed Installs/Logs/ManagedSoftwareUpdate.log"
)

// Name and version character classes shared by both tools' grammars.
const (
	namePattern    = `([a-zA-Z0-9._ ]*)`
	versionPattern = `([a-zA-Z0-9._]*)`
)

// Provider supplies the tool-specific parts of a driver.
type Provider interface {
	Name() string
	LogPath() string
	Rules() []software.RuleSpec
}

type jamf struct{ path string }

// Jamf returns the provider for jamf.log. An empty path selects the default.
func Jamf(path string) Provider {
	if strings.TrimSpace(path) == "" {
		path = DefaultJamfLogPath
	}
	return jamf{path: path}
}

func (jamf) Name() string      { return "jamf" }
func (j jamf) LogPath() string { return j.path }

func (jamf) Rules() []software.RuleSpec {
	return []software.RuleSpec{
		{Status: software.StatusInstalling, Pattern: `Installing ` + namePattern + `-` + versionPattern + `\.pkg\.\.\.$`},
		{Status: software.StatusFailed, Pattern: `Installation failed\. The installer reported: installer: Package name is ` + namePattern + `-` + versionPattern + `$`},
		{Status: software.StatusSuccess, Pattern: `Successfully installed ` + namePattern + `-` + versionPattern + `\.pkg`},
	}
}

type munki struct{ path string }

// Munki returns the provider for ManagedSoftwareUpdate.log. An empty path
// selects the default.
func Munki(path string) Provider {
	if strings.TrimSpace(path) == "" {
		path = DefaultMunkiLogPath
	}
	return munki{path: path}
}

func (munki) Name() string      { return "munki" }
func (m munki) LogPath() string { return m.path }

// Munki hands packages to installer(8) as well, so the lines share Jamf's
// grammar.
func (munki) Rules() []software.RuleSpec {
	return []software.RuleSpec{
		{Status: software.StatusInstalling, Pattern: `Installing ` + namePattern + `-` + versionPattern + `\.pkg\.\.\.$`},
		{Status: software.StatusFailed, Pattern: `Installation failed\. The installer reported: installer: Package name is ` + namePattern + `-` + versionPattern + `$`},
		{Status: software.StatusSuccess, Pattern: `Successfully installed ` + namePattern + `-` + versionPattern + `\.pkg`},
	}
}
