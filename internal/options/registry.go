package options

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/skyhook-ctl/flightcore/internal/dispatcher"
)

// SectionKey is the object in the options file holding persisted values.
const SectionKey = "options"

// Built-in commands handled by the registry itself.
const (
	CommandWriteConfig = "writeConfig"
	CommandReadConfig  = "readConfig"
)

var (
	// ErrUnknownCommand is returned for a command naming no option or built-in.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoOptionsFile is returned by WriteConfig when no file path is configured.
	ErrNoOptionsFile = errors.New("no options file configured")
)

// Registry owns every option, persists them to a JSON file and applies operator commands.
type Registry struct {
	options    map[string]Option
	order      []Option
	dispatcher *dispatcher.Dispatcher
	path       string
	logger     zerolog.Logger
}

// NewRegistry registers opts with d under their names, plus writeConfig and readConfig.
// path is the JSON options file; it may not exist yet.
func NewRegistry(d *dispatcher.Dispatcher, path string, logger zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		options:    make(map[string]Option, len(opts)),
		dispatcher: d,
		path:       path,
		logger:     logger.With().Str("component", "options").Logger(),
	}

	for _, opt := range opts {
		if opt.Name() == "" {
			continue
		}
		r.options[strings.ToLower(opt.Name())] = opt
		r.order = append(r.order, opt)

		o := opt
		d.Register(o.Name(), func(e dispatcher.Event) (any, error) {
			return nil, o.SetParameters(e.Args...)
		}, dispatcher.Logged())
	}

	d.Register(CommandWriteConfig, func(dispatcher.Event) (any, error) {
		return nil, r.WriteConfig()
	}, dispatcher.Logged())
	d.Register(CommandReadConfig, func(dispatcher.Event) (any, error) {
		return nil, r.ReadConfig()
	}, dispatcher.Logged())

	return r
}

// Get looks an option up by name, ignoring case.
func (r *Registry) Get(name string) (Option, bool) {
	opt, ok := r.options[strings.ToLower(name)]
	return opt, ok
}

// Options returns the options in registration order.
func (r *Registry) Options() []Option {
	return append([]Option(nil), r.order...)
}

// Path is the options file.
func (r *Registry) Path() string {
	return r.path
}

// ProcessCommands parses an operator command line and applies each command in order.
// A syntax error rejects the whole line; a failing command stops at that command.
func (r *Registry) ProcessCommands(line string) error {
	commands, err := ParseCommands(line)
	if err != nil {
		return err
	}

	for _, c := range commands {
		if !r.dispatcher.HasHandler(c.Name) {
			return fmt.Errorf("%w : %s", ErrUnknownCommand, c.Name)
		}
		_, err := r.dispatcher.Dispatch(dispatcher.Event{
			Command:   c.Name,
			Args:      c.Params,
			Timestamp: time.Now(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadConfig applies every persisted value found in the options file.
// A missing file is not an error. Invalid values are reported together and skipped.
func (r *Registry) ReadConfig() error {
	if r.path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug().Str("path", r.path).Msg("No options file, keeping defaults")
			return nil
		}
		return fmt.Errorf("failed to parse options file: %w", err)
	}

	persisted := v.GetStringMap(SectionKey)
	var errs []error
	for _, opt := range r.order {
		raw, ok := persisted[strings.ToLower(opt.Name())]
		if !ok {
			continue
		}
		params, err := toParameters(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w for %s: %v", ErrInvalidValue, opt.Name(), err))
			continue
		}
		if err := opt.SetParameters(params...); err != nil {
			errs = append(errs, err)
		}
	}

	for key := range persisted {
		if _, ok := r.options[key]; !ok {
			r.logger.Debug().Str("key", key).Msg("Ignoring unknown persisted option")
		}
	}

	return errors.Join(errs...)
}

// WriteConfig persists the current parameters of every option.
func (r *Registry) WriteConfig() error {
	if r.path == "" {
		return ErrNoOptionsFile
	}

	values := make(map[string]any, len(r.order))
	for _, opt := range r.order {
		values[opt.Name()] = strings.Join(opt.Parameters(), ", ")
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set(SectionKey, values)
	if err := v.WriteConfigAs(r.path); err != nil {
		return fmt.Errorf("failed to write options file: %w", err)
	}

	r.logger.Info().Str("path", r.path).Int("options", len(values)).Msg("Wrote options")
	return nil
}

// toParameters turns a persisted JSON value into option parameters.
// Strings are split on commas; arrays contribute one parameter per element.
func toParameters(raw any) ([]string, error) {
	if list, ok := raw.([]any); ok {
		params, err := cast.ToStringSliceE(list)
		if err != nil {
			return nil, err
		}
		for i, p := range params {
			params[i] = strings.TrimSpace(p)
		}
		return params, nil
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return nil, err
	}
	return SplitParameters(s), nil
}
