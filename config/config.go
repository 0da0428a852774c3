// Package config loads the INI configuration file and the saved-target
// hostfile, and resolves the environment variables recognized by the client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// INI keys, grouped by section. The key names (type-prefixed, camel-cased)
// are kept compatible with the config files of the original C++ client so an
// existing ini keeps working.
const (
	keyDefaultHost = "target.sDefaultHost"
	keyDefaultPort = "target.sDefaultPort"
	keyDefaultPass = "target.sDefaultPass"
	keyAllowNoArgs = "target.bAllowNoArgs"

	keyDisablePrompt = "appearance.bDisablePrompt"
	keyDisableColors = "appearance.bDisableColors"
	keyCustomPrompt  = "appearance.sCustomPrompt"
	keyBukkitColors  = "appearance.bEnableBukkitColors"

	keyCommandDelay  = "timing.iCommandDelay"
	keyReceiveDelay  = "timing.iReceiveDelay"
	keySelectTimeout = "timing.iSelectTimeout"
)

var knownSections = map[string]bool{"target": true, "appearance": true, "timing": true}

var knownKeys = map[string]bool{
	strings.ToLower(keyDefaultHost):   true,
	strings.ToLower(keyDefaultPort):   true,
	strings.ToLower(keyDefaultPass):   true,
	strings.ToLower(keyAllowNoArgs):   true,
	strings.ToLower(keyDisablePrompt): true,
	strings.ToLower(keyDisableColors): true,
	strings.ToLower(keyCustomPrompt):  true,
	strings.ToLower(keyBukkitColors):  true,
	strings.ToLower(keyCommandDelay):  true,
	strings.ToLower(keyReceiveDelay):  true,
	strings.ToLower(keySelectTimeout): true,
}

// Settings is the merged view of INI defaults, file values, and environment
// overrides. Timing values are in milliseconds, matching the INI keys.
type Settings struct {
	DefaultHost string
	DefaultPort string
	DefaultPass string
	AllowNoArgs bool

	DisablePrompt      bool
	DisableColors      bool
	CustomPrompt       string
	EnableBukkitColors bool

	CommandDelayMs  int
	ReceiveDelayMs  int
	SelectTimeoutMs int
}

// Config owns the viper instance so --update-ini can write back the file
// with any unknown keys it carried preserved.
type Config struct {
	Settings Settings

	// IniPath is the file that was loaded, or the preferred path to
	// materialize one when none exists yet.
	IniPath string

	// HostfilePath is where the saved-target store lives (or would live).
	HostfilePath string

	v   *viper.Viper
	log *zap.SugaredLogger
}

// EnvPrefix derives the environment variable prefix from the executable
// basename: extension stripped, upper-cased, with every non-alphanumeric
// squashed to an underscore ("rcon-client" -> "RCON_CLIENT").
func EnvPrefix(progname string) string {
	base := strings.TrimSuffix(progname, filepath.Ext(progname))
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, base)
	return mapped
}

func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("ini")

	v.SetDefault(keyDefaultHost, "localhost")
	v.SetDefault(keyDefaultPort, "27015")
	v.SetDefault(keyDefaultPass, "")
	v.SetDefault(keyAllowNoArgs, false)
	v.SetDefault(keyDisablePrompt, false)
	v.SetDefault(keyDisableColors, false)
	v.SetDefault(keyCustomPrompt, "")
	v.SetDefault(keyBukkitColors, false)
	v.SetDefault(keyCommandDelay, 0)
	v.SetDefault(keyReceiveDelay, 10)
	v.SetDefault(keySelectTimeout, 500)

	// environment beats the file, commandline flags beat both (applied by
	// the caller)
	if prefix != "" {
		_ = v.BindEnv(keyDefaultHost, prefix+"_HOST")
		_ = v.BindEnv(keyDefaultPort, prefix+"_PORT")
		_ = v.BindEnv(keyDefaultPass, prefix+"_PASS")
	}

	return v
}

// searchDirs returns the config directory candidates in priority order:
// the <PREFIX>_CONFIG_DIR override, the executable's directory, then the
// per-user config directory.
func searchDirs(prefix, progname string) []string {
	var dirs []string

	if dir := os.Getenv(prefix + "_CONFIG_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if ucd, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(ucd, progname))
	}

	return dirs
}

// Load reads <progname>.ini from the first search directory that has one and
// applies environment overrides. A missing file is not an error; defaults
// apply. Unknown keys in known sections produce a warning, unknown sections
// are ignored.
func Load(progname string, log *zap.SugaredLogger) (*Config, error) {
	prefix := EnvPrefix(progname)
	dirs := searchDirs(prefix, progname)
	return load(progname, prefix, dirs, log)
}

func load(progname, prefix string, dirs []string, log *zap.SugaredLogger) (*Config, error) {
	v := newViper(prefix)

	base := strings.TrimSuffix(progname, filepath.Ext(progname))
	c := &Config{v: v, log: log}

	if len(dirs) > 0 {
		c.IniPath = filepath.Join(dirs[0], base+".ini")
		c.HostfilePath = filepath.Join(dirs[0], base+".hosts")
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, base+".ini")
		if _, err := os.Stat(path); err != nil {
			continue
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		c.IniPath = path
		c.HostfilePath = filepath.Join(dir, base+".hosts")
		c.warnUnknownKeys(path)
		break
	}

	c.Settings = Settings{
		DefaultHost:        v.GetString(keyDefaultHost),
		DefaultPort:        v.GetString(keyDefaultPort),
		DefaultPass:        v.GetString(keyDefaultPass),
		AllowNoArgs:        v.GetBool(keyAllowNoArgs),
		DisablePrompt:      v.GetBool(keyDisablePrompt),
		DisableColors:      v.GetBool(keyDisableColors),
		CustomPrompt:       v.GetString(keyCustomPrompt),
		EnableBukkitColors: v.GetBool(keyBukkitColors),
		CommandDelayMs:     v.GetInt(keyCommandDelay),
		ReceiveDelayMs:     v.GetInt(keyReceiveDelay),
		SelectTimeoutMs:    v.GetInt(keySelectTimeout),
	}

	return c, nil
}

func (c *Config) warnUnknownKeys(path string) {
	for _, key := range c.v.AllKeys() {
		section, _, found := strings.Cut(key, ".")
		if !found || !knownSections[section] {
			continue
		}
		if !knownKeys[key] {
			c.log.Warnw("unknown config key", "key", key, "file", path)
		}
	}
}

// WriteDefault materializes a config file populated with the default values,
// overwriting anything already there (--write-ini).
func WriteDefault(path string) error {
	v := newViper("") // no env bleed-through into the written file
	return v.WriteConfigAs(path)
}

// Update writes the currently-effective values back to the loaded file,
// preserving any unrecognized keys it carried and adding missing ones
// (--update-ini).
func (c *Config) Update() error {
	if c.IniPath == "" {
		return fmt.Errorf("no config path resolved")
	}

	s := c.Settings
	c.v.Set(keyDefaultHost, s.DefaultHost)
	c.v.Set(keyDefaultPort, s.DefaultPort)
	c.v.Set(keyDefaultPass, s.DefaultPass)
	c.v.Set(keyAllowNoArgs, s.AllowNoArgs)
	c.v.Set(keyDisablePrompt, s.DisablePrompt)
	c.v.Set(keyDisableColors, s.DisableColors)
	c.v.Set(keyCustomPrompt, s.CustomPrompt)
	c.v.Set(keyBukkitColors, s.EnableBukkitColors)
	c.v.Set(keyCommandDelay, s.CommandDelayMs)
	c.v.Set(keyReceiveDelay, s.ReceiveDelayMs)
	c.v.Set(keySelectTimeout, s.SelectTimeoutMs)

	return c.v.WriteConfigAs(c.IniPath)
}
