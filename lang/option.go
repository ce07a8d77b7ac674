package lang

import (
	"io/fs"
	"strings"

	"github.com/ardnew/flk/log"
	"github.com/ardnew/flk/pkg"
)

// DefaultFileMode is the permission of files created by atomic writes when
// the original file's mode cannot be determined.
const DefaultFileMode fs.FileMode = 0o644

// Option configures a [Parser].
type Option func(*Parser)

// WithLogger sets the logger for parse and mutation tracing.
func WithLogger(logger log.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithExtension sets the file extension appended to import paths.
// The default is [pkg.Extension].
func WithExtension(ext string) Option {
	return func(p *Parser) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		p.extension = ext
	}
}

// WithSearchPath adds directories searched, in order, for imports that do not
// exist relative to the importing file. They take precedence over the
// directories listed in the [pkg.PathEnv] environment variable.
func WithSearchPath(dirs ...string) Option {
	return func(p *Parser) {
		p.searchPath = append(p.searchPath, dirs...)
	}
}

// WithAtomicWrite controls whether mutations replace files by writing a
// temporary file and renaming it over the original. Enabled by default.
func WithAtomicWrite(enable bool) Option {
	return func(p *Parser) {
		p.atomic = enable
	}
}

// WithFileMode sets the permission used for rewritten files whose current mode
// cannot be read.
func WithFileMode(mode fs.FileMode) Option {
	return func(p *Parser) {
		p.fileMode = mode
	}
}

func applyDefaults(p *Parser) {
	p.extension = pkg.Extension
	p.atomic = true
	p.fileMode = DefaultFileMode
}
