package analysis

import (
	"errors"
	"sort"

	"github.com/risor-io/risor/builtins"
	"github.com/risor-io/risor/object"
	modBase64 "github.com/risor-io/risor/modules/base64"
	modBytes "github.com/risor-io/risor/modules/bytes"
	modDNS "github.com/risor-io/risor/modules/dns"
	modErrors "github.com/risor-io/risor/modules/errors"
	modExec "github.com/risor-io/risor/modules/exec"
	modFilepath "github.com/risor-io/risor/modules/filepath"
	modFmt "github.com/risor-io/risor/modules/fmt"
	modHTTP "github.com/risor-io/risor/modules/http"
	modJSON "github.com/risor-io/risor/modules/json"
	modMath "github.com/risor-io/risor/modules/math"
	modOS "github.com/risor-io/risor/modules/os"
	modRand "github.com/risor-io/risor/modules/rand"
	modRegexp "github.com/risor-io/risor/modules/regexp"
	modStrconv "github.com/risor-io/risor/modules/strconv"
	modStrings "github.com/risor-io/risor/modules/strings"
	modTime "github.com/risor-io/risor/modules/time"
)

// ErrEmptyRegistry is returned when registry construction yields no
// globals. The server cannot start without a registry.
var ErrEmptyRegistry = errors.New("analysis: empty registry")

// Registry is the table of globals known to analyzed scripts. It mirrors
// risor's default global surface (the builtins and modules risor.Eval
// installs when no options override them), so a script that runs under
// plain risor never reports undefined names here. It is built once at
// process start and shared read-only by every analysis task; it is never
// mutated after construction.
type Registry struct {
	globals map[string]object.Object
	names   []string
}

// NewRegistry builds the shared registry.
func NewRegistry() (*Registry, error) {
	globals := map[string]object.Object{}
	merge := func(more map[string]object.Object) {
		for name, obj := range more {
			globals[name] = obj
		}
	}

	// Builtin functions: core plus the fmt/http/os/dns contributions
	// (print, printf, fetch, ...).
	merge(builtins.Builtins())
	merge(modFmt.Builtins())
	merge(modHTTP.Builtins())
	merge(modOS.Builtins())
	merge(modDNS.Builtins())

	// Default modules.
	globals["base64"] = modBase64.Module()
	globals["bytes"] = modBytes.Module()
	globals["errors"] = modErrors.Module()
	globals["exec"] = modExec.Module()
	globals["filepath"] = modFilepath.Module()
	globals["fmt"] = modFmt.Module()
	globals["json"] = modJSON.Module()
	globals["math"] = modMath.Module()
	globals["os"] = modOS.Module()
	globals["rand"] = modRand.Module()
	globals["regexp"] = modRegexp.Module()
	globals["strconv"] = modStrconv.Module()
	globals["strings"] = modStrings.Module()
	globals["time"] = modTime.Module()

	if len(globals) == 0 {
		return nil, ErrEmptyRegistry
	}
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{globals: globals, names: names}, nil
}

// Names returns the sorted global names.
// Callers must not modify the returned slice.
func (r *Registry) Names() []string {
	return r.names
}

// Has reports whether a global is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.globals[name]
	return ok
}

// Len returns the number of registered globals.
func (r *Registry) Len() int {
	return len(r.globals)
}
