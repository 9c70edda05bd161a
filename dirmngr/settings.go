/*
   trustcore - OpenPGP trust-infrastructure core
   Copyright (C) 2012-2025  Hockeypuck Contributors

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published by
   the Free Software Foundation, version 3.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package dirmngr

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

// OCSPConfig controls whether OCSP checks (ISVALID with a fingerprint
// argument, CHECKOCSP) are enabled and whether the default responder is forced regardless of the AIA extension.
type OCSPConfig struct {
	Enabled               bool `toml:"enabled"`
	ForceDefaultResponder bool `toml:"forceDefaultResponder"`
}

func defaultOCSP() OCSPConfig {
	return OCSPConfig{Enabled: false}
}

// Settings holds the per-process configuration consumed at connection-accept
// time to seed each session's Controller.
type Settings struct {
	HomeDir      string `toml:"homeDir"`
	ListenSocket string `toml:"listenSocket"`

	LogFile  string `toml:"logfile"`
	LogLevel string `toml:"loglevel"`

	// TimeoutSecs bounds any single network operation performed on behalf
	// of a session (keyserver fetch, CRL reload, OCSP round-trip).
	TimeoutSecs int `toml:"timeoutSecs"`
	// QuickTimeoutSecs is substituted for TimeoutSecs while the session's
	// Controller.Quick is set. No command parses a --quick flag or sets
	// Quick, and RESET clears it.
	QuickTimeoutSecs int `toml:"quickTimeoutSecs"`

	// DefaultKeyserver seeds a session's keyserver list the first time
	// KEYSERVER is invoked without one already configured.
	DefaultKeyserver string `toml:"defaultKeyserver"`

	OCSP OCSPConfig `toml:"ocsp"`

	Metrics *MetricsSettings `toml:"metrics"`

	Software string
	Version  string
	BuiltAt  string
}

const (
	DefaultHomeDir          = "/var/lib/dirmngr-core"
	DefaultListenSocket     = "/run/dirmngr-core/socket"
	DefaultLogLevel         = "INFO"
	DefaultTimeoutSecs      = 30
	DefaultQuickTimeoutSecs = 5
	DefaultKeyserverURL     = "hkps://keys.openpgp.org"
)

var (
	Software = "dirmngr-core"
	Version  = "~unreleased"
	BuiltAt  string
)

// DefaultSettings returns the baseline configuration ParseSettings decodes
// on top of, matching the teacher's DefaultSettings/ParseSettings split.
func DefaultSettings() Settings {
	return Settings{
		HomeDir:          DefaultHomeDir,
		ListenSocket:     DefaultListenSocket,
		LogLevel:         DefaultLogLevel,
		TimeoutSecs:      DefaultTimeoutSecs,
		QuickTimeoutSecs: DefaultQuickTimeoutSecs,
		DefaultKeyserver: DefaultKeyserverURL,
		OCSP:             defaultOCSP(),
		Metrics:          DefaultMetricsSettings(),
		Software:         Software,
		Version:          Version,
		BuiltAt:          BuiltAt,
	}
}

// ParseSettings decodes a TOML configuration document into Settings,
// pre-processing it as a Go template (with sprig functions and
// environment-variable lookup) when it contains template syntax.
func ParseSettings(data string) (*Settings, error) {
	if strings.Contains(data, "{{") && strings.Contains(data, "}}") {
		tmpl, err := template.New("config").Funcs(sprig.TxtFuncMap()).Funcs(envFuncMap()).Parse(data)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		w := &bytes.Buffer{}
		if err := tmpl.Execute(w, readEnv()); err != nil {
			return nil, errors.WithStack(err)
		}
		data = w.String()
	}

	settings := DefaultSettings()
	if _, err := toml.Decode(data, &settings); err != nil {
		return nil, errors.WithStack(err)
	}
	return &settings, nil
}

func envFuncMap() template.FuncMap {
	return template.FuncMap{
		"osenv": func(prefix string) map[string]string {
			env := make(map[string]string)
			for _, e := range os.Environ() {
				pair := strings.SplitN(e, "=", 2)
				if strings.HasPrefix(pair[0], prefix) {
					env[pair[0]] = pair[1]
				}
			}
			return env
		},
	}
}

func readEnv() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		env[pair[0]] = pair[1]
	}
	return env
}
