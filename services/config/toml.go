//go:build !(rp2040 || rp2350)

package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"lightcode-go/errcode"
)

// head is decoded first to find the base and which list-valued keys the
// file sets itself.
type head struct {
	Base   string `toml:"base"`
	Groups []struct {
		Name string `toml:"name"`
	} `toml:"group"`
	Ramp struct {
		Curve    string    `toml:"curve"`
		Channels [][]uint8 `toml:"channels"`
	} `toml:"ramp"`
}

// Parse decodes a TOML profile. Keys the file omits come from its base
// profile (or DefaultFile). Groups and explicit ramp channels replace the
// base lists wholesale.
func Parse(data []byte) (File, error) {
	var h head
	if err := toml.Unmarshal(data, &h); err != nil {
		return File{}, errcode.Wrap(errcode.InvalidProfile, "config.parse", err)
	}
	f := DefaultFile()
	if h.Base != "" {
		b, ok := Builtin(h.Base)
		if !ok {
			return File{}, &errcode.E{C: errcode.UnknownProfile, Op: "config.parse", Msg: "base " + h.Base}
		}
		f = b
	}
	if len(h.Groups) > 0 {
		f.Groups = nil
	}
	if h.Ramp.Curve != "" || len(h.Ramp.Channels) > 0 {
		f.Ramp.Channels = nil
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, &errcode.E{C: errcode.InvalidProfile, Op: "config.parse", Err: err}
	}
	return f, nil
}

// Marshal renders a profile file as TOML.
func Marshal(f File) ([]byte, error) {
	return toml.Marshal(f)
}

// ReadFile parses the profile file at path without converting it.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, &errcode.E{C: errcode.InvalidProfile, Op: "config.read", Msg: path, Err: err}
	}
	return Parse(data)
}

// Load reads, converts and validates the profile at path.
func Load(path string) (Profile, error) {
	f, err := ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	return f.Profile()
}

// Resolve treats nameOrPath as a built-in name first, then as a file.
func Resolve(nameOrPath string) (Profile, error) {
	if _, ok := builtins[nameOrPath]; ok {
		return Lookup(nameOrPath)
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return Profile{}, &errcode.E{C: errcode.UnknownProfile, Op: "config.resolve", Msg: nameOrPath}
	}
	return Load(nameOrPath)
}
