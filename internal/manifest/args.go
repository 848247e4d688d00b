package manifest

import (
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// ArgBuilder assembles an engine command line in insertion order.
type ArgBuilder struct {
	args []string
}

// NewArgBuilder starts a command line with the given invocation words.
func NewArgBuilder(invocation ...string) *ArgBuilder {
	return &ArgBuilder{args: append([]string(nil), invocation...)}
}

// Flag appends a bare flag.
func (b *ArgBuilder) Flag(name string) *ArgBuilder {
	b.args = append(b.args, name)
	return b
}

// FlagIf appends a bare flag when cond holds.
func (b *ArgBuilder) FlagIf(cond bool, name string) *ArgBuilder {
	if cond {
		b.Flag(name)
	}
	return b
}

// Value appends "name value".
func (b *ArgBuilder) Value(name, value string) *ArgBuilder {
	b.args = append(b.args, name, value)
	return b
}

// ValueIf appends "name value" when value is non-empty.
func (b *ArgBuilder) ValueIf(name, value string) *ArgBuilder {
	if value != "" {
		b.Value(name, value)
	}
	return b
}

// Extra appends free-form engine args: true is emitted as a bare flag,
// everything else (false included) as "--key value".
func (b *ArgBuilder) Extra(extra models.EngineArgs) *ArgBuilder {
	for _, arg := range extra {
		flag := "--" + strings.TrimLeft(arg.Key, "-")
		if v, ok := arg.Value.(bool); ok && v {
			b.Flag(flag)
			continue
		}
		b.Value(flag, models.FormatArgValue(arg.Value))
	}
	return b
}

// Args returns the assembled argument vector.
func (b *ArgBuilder) Args() []string {
	return append([]string(nil), b.args...)
}

// String returns the arguments joined for a POSIX shell, quoting where needed.
func (b *ArgBuilder) String() string {
	return shellescape.QuoteCommand(b.args)
}
