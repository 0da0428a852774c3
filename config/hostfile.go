package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/ini.v1"
)

// Hostfile section keys, one section per saved target.
const (
	hostKeyHost = "sHost"
	hostKeyPort = "sPort"
	hostKeyPass = "sPass"
)

// HostEntry is one saved connection target.
type HostEntry struct {
	Host string
	Port string
	Pass string
}

// Hostfile is the INI-backed saved-target store. Mutating operations write
// the file back immediately; removing the last entry deletes the file.
type Hostfile struct {
	path string
	file *ini.File
}

// LoadHostfile opens the store at path. A missing file yields an empty
// store; the file is only created once an entry is saved.
func LoadHostfile(path string) (*Hostfile, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("reading hostfile %s: %w", path, err)
	}
	return &Hostfile{path: path, file: f}, nil
}

// Lookup returns the saved target by name.
func (h *Hostfile) Lookup(name string) (HostEntry, bool) {
	if !h.file.HasSection(name) {
		return HostEntry{}, false
	}

	sec := h.file.Section(name)
	return HostEntry{
		Host: sec.Key(hostKeyHost).String(),
		Port: sec.Key(hostKeyPort).String(),
		Pass: sec.Key(hostKeyPass).String(),
	}, true
}

// Names lists the saved targets in sorted order.
func (h *Hostfile) Names() []string {
	var names []string
	for _, sec := range h.file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, sec.Name())
	}
	sort.Strings(names)
	return names
}

func (h *Hostfile) Empty() bool { return len(h.Names()) == 0 }

// Save adds or updates a named target and writes the store. Reports whether
// the entry was newly added; saving an identical existing entry is an error
// so the user learns nothing changed.
func (h *Hostfile) Save(name string, e HostEntry) (added bool, err error) {
	if existing, ok := h.Lookup(name); ok {
		if existing == e {
			return false, fmt.Errorf("host %q is already set to %s:%s", name, e.Host, e.Port)
		}
	} else {
		added = true
	}

	sec := h.file.Section(name)
	sec.Key(hostKeyHost).SetValue(e.Host)
	sec.Key(hostKeyPort).SetValue(e.Port)
	sec.Key(hostKeyPass).SetValue(e.Pass)

	return added, h.file.SaveTo(h.path)
}

// Remove deletes the named targets and writes the store, returning which
// names were actually present. When the last entry goes away the file itself
// is deleted.
func (h *Hostfile) Remove(names ...string) (removed, missing []string, err error) {
	for _, name := range names {
		if h.file.HasSection(name) {
			h.file.DeleteSection(name)
			removed = append(removed, name)
		} else {
			missing = append(missing, name)
		}
	}

	if len(removed) == 0 {
		return removed, missing, nil
	}

	if h.Empty() {
		if err = os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			return removed, missing, fmt.Errorf("deleting empty hostfile: %w", err)
		}
		return removed, missing, nil
	}

	return removed, missing, h.file.SaveTo(h.path)
}
