package service

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{ .Name }}
After=syslog.target network.target

[Service]
ExecStart={{ .ExecStart }}
WorkingDirectory={{ .WorkingDirectory }}
Environment={{ .EnvironmentLine }}

[Install]
WantedBy=multi-user.target
`))

// Descriptor is the systemd unit generated for a target
type Descriptor struct {
	Name             string
	ExecStart        string
	WorkingDirectory string
	Environment      map[string]string
}

// NewDescriptor derives the unit definition from the target and the declared environment
func NewDescriptor(target Target, env map[string]string) Descriptor {
	return Descriptor{
		Name:             target.Name,
		ExecStart:        target.ExecCommand(),
		WorkingDirectory: target.BasePath(),
		Environment:      env,
	}
}

// EnvironmentLine joins every pair, sorted by key and quoted individually
func (d Descriptor) EnvironmentLine() string {
	keys := make([]string, 0, len(d.Environment))
	for k := range d.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, strconv.Quote(k+"="+d.Environment[k]))
	}
	return strings.Join(pairs, " ")
}

// Render produces the unit file text
func (d Descriptor) Render() (string, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render unit %s: %w", d.Name, err)
	}
	return buf.String(), nil
}
