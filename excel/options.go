package excel

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/bmatcuk/doublestar"
	"github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/genelet/sheetcast/handler"
	"github.com/genelet/sheetcast/mapping"
	"github.com/genelet/sheetcast/utils"
)

var (
	// ErrInvalidLimit is returned for a negative row limit.
	ErrInvalidLimit = errors.New("row limit must not be negative")

	// ErrInvalidOption is returned for an option value that can never work.
	ErrInvalidOption = errors.New("invalid option")
)

// Option configures a Reader or a Writer.
type Option func(*config) error

type config struct {
	limit      int
	headers    []string
	headerMap  map[string]string
	parallel   int
	def        *string
	registry   *handler.Registry
	handlers   []handler.Handler
	converters map[string]handler.Handler
	functions  map[string]function.Function
	creator    any
	params     []string
	maxRows    int
	ignore     []string
	baseDir    string
	logger     logrus.FieldLogger
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		parallel: 1,
		logger:   logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// WithLimit stops after n data rows. Zero means no limit.
func WithLimit(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidLimit, n)
		}
		c.limit = n
		return nil
	}
}

// WithHeaders declares the sheet headerless and names its columns in
// order. Readers treat the first row as data; writers emit no header row
// and lay the columns out in this order.
func WithHeaders(names ...string) Option {
	return func(c *config) error {
		if len(names) == 0 {
			return fmt.Errorf("%w: no header names", ErrInvalidOption)
		}
		c.headers = append([]string(nil), names...)
		return nil
	}
}

// WithHeaderMap maps header text in the sheet to the column names the
// record fields declare. Writers apply it in reverse.
func WithHeaderMap(m map[string]string) Option {
	return func(c *config) error {
		if c.headerMap == nil {
			c.headerMap = make(map[string]string, len(m))
		}
		for text, column := range m {
			c.headerMap[text] = column
		}
		return nil
	}
}

// WithParallel converts rows on n goroutines once the plan is built.
func WithParallel(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: parallelism %d", ErrInvalidOption, n)
		}
		c.parallel = n
		return nil
	}
}

// WithDefault sets the value used for every empty cell. It takes
// precedence over column and model defaults.
func WithDefault(s string) Option {
	return func(c *config) error {
		c.def = &s
		return nil
	}
}

// WithRegistry replaces the default handler registry.
func WithRegistry(r *handler.Registry) Option {
	return func(c *config) error {
		if r == nil {
			return fmt.Errorf("%w: nil registry", ErrInvalidOption)
		}
		c.registry = r
		return nil
	}
}

// WithHandler registers h on a copy of the registry in use.
func WithHandler(h handler.Handler) Option {
	return func(c *config) error {
		if h == nil {
			return handler.ErrNilHandler
		}
		c.handlers = append(c.handlers, h)
		return nil
	}
}

// WithConverter makes h available to fields tagged converter:"name".
func WithConverter(name string, h handler.Handler) Option {
	return func(c *config) error {
		if h == nil {
			return handler.ErrNilHandler
		}
		if c.converters == nil {
			c.converters = make(map[string]handler.Handler)
		}
		c.converters[name] = h
		return nil
	}
}

// WithFunction adds a function to column expressions. fn is either a
// function.Function or a plain Go func.
func WithFunction(name string, fn any) Option {
	return func(c *config) error {
		f, ok := fn.(function.Function)
		if !ok {
			var err error
			if f, err = utils.NativeFunction(fn); err != nil {
				return fmt.Errorf("function %s: %w", name, err)
			}
		}
		if c.functions == nil {
			c.functions = make(map[string]function.Function)
		}
		c.functions[name] = f
		return nil
	}
}

// WithCreator builds records with fn, a constructor or factory whose
// parameters are bound to the named fields.
func WithCreator(fn any, params ...string) Option {
	return func(c *config) error {
		if fn == nil {
			return fmt.Errorf("%w: nil creator", ErrInvalidOption)
		}
		c.creator = fn
		c.params = params
		return nil
	}
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithMaxRowsPerSheet starts a new sheet once n data rows are written.
func WithMaxRowsPerSheet(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: %d rows per sheet", ErrInvalidOption, n)
		}
		c.maxRows = n
		return nil
	}
}

// WithIgnore drops the columns whose header matches one of the glob
// patterns.
func WithIgnore(patterns ...string) Option {
	return func(c *config) error {
		for _, p := range patterns {
			if _, err := doublestar.Match(p, p); err != nil {
				return fmt.Errorf("%w: pattern %q: %v", ErrInvalidOption, p, err)
			}
		}
		c.ignore = append(c.ignore, patterns...)
		return nil
	}
}

// WithBaseDir resolves relative paths given to the abspath function.
func WithBaseDir(dir string) Option {
	return func(c *config) error {
		c.baseDir = dir
		return nil
	}
}

func (c *config) ignored(header string) bool {
	for _, p := range c.ignore {
		if ok, _ := doublestar.Match(p, header); ok {
			return true
		}
	}
	return false
}

// mappingOptions resolves the registry and the creator for record type t.
func (c *config) mappingOptions(t reflect.Type) (mapping.Options, error) {
	reg := c.registry
	if len(c.handlers) > 0 {
		if reg == nil {
			reg = handler.Default()
		} else {
			reg = reg.Clone()
		}
		for _, h := range c.handlers {
			if err := reg.Register(h); err != nil {
				return mapping.Options{}, err
			}
		}
	}

	o := mapping.Options{
		Registry:   reg,
		Converters: c.converters,
		Default:    c.def,
		Functions:  c.functions,
		BaseDir:    c.baseDir,
		Logger:     c.logger,
	}
	if c.creator != nil {
		creator, err := mapping.NewFuncCreator(t, c.creator, c.params...)
		if err != nil {
			return mapping.Options{}, err
		}
		o.Creator = creator
	}
	return o, nil
}
