// Package config turns YAML documents and dotenv files into value
// providers.
//
//	src, err := config.LoadFile("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	providers, err := src.Providers(
//	    config.Bind("database.dsn", DSN),
//	    config.Bind("server", inject.Type[ServerConfig]()),
//	)
//	root, err := inject.Create(providers, nil)
//
// Values are decoded into the key's type with gopkg.in/yaml.v3, so struct
// keys use `yaml` field tags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/junioryono/inject"
	"gopkg.in/yaml.v3"
)

// ErrMissing is matched by MissingError.
var ErrMissing = errors.New("configuration value not found")

// MissingError indicates that a bound path has no value.
type MissingError struct {
	Path string
}

func (e MissingError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissing, e.Path)
}

func (e MissingError) Is(target error) bool {
	return target == ErrMissing
}

// DecodeError indicates that a value could not be decoded into the type of
// its key.
type DecodeError struct {
	Path  string
	Type  reflect.Type
	Cause error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decode %q into %s: %v", e.Path, e.Type, e.Cause)
}

func (e DecodeError) Unwrap() error {
	return e.Cause
}

// Source is a tree of configuration values. Paths are dot-separated map
// keys.
type Source struct {
	values map[string]any
}

// Load reads a YAML document.
func Load(r io.Reader) (*Source, error) {
	values := make(map[string]any)

	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return &Source{values: values}, nil
}

// LoadFile reads a YAML file.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	src, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// LoadEnv reads the process environment and the given dotenv files. A
// variable set in the environment wins over the same variable in a file;
// earlier files win over later ones.
func LoadEnv(files ...string) (*Source, error) {
	values := make(map[string]any)

	for i := len(files) - 1; i >= 0; i-- {
		vars, err := godotenv.Read(files[i])
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", files[i], err)
		}
		for k, v := range vars {
			values[k] = v
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			values[k] = v
		}
	}

	return &Source{values: values}, nil
}

// Merge returns a source holding the values of all sources. Maps are
// merged recursively; later sources win for everything else.
func Merge(sources ...*Source) *Source {
	values := make(map[string]any)
	for _, s := range sources {
		if s != nil {
			mergeInto(values, s.values)
		}
	}
	return &Source{values: values}
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeInto(existing, sub)
				continue
			}
			copied := make(map[string]any, len(sub))
			mergeInto(copied, sub)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}

// Get returns the value at path. The empty path is the whole tree.
func (s *Source) Get(path string) (any, bool) {
	if path == "" {
		return s.values, true
	}

	if v, ok := s.values[path]; ok {
		return v, true
	}

	var cur any = s.values
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Section decodes the value at path into T.
func Section[T any](s *Source, path string) (T, error) {
	var out T

	v, ok := s.Get(path)
	if !ok {
		return out, MissingError{Path: path}
	}

	decoded, err := decode(path, v, reflect.TypeFor[T]())
	if err != nil {
		return out, err
	}
	out, _ = decoded.Interface().(T)
	return out, nil
}

// Binding maps a configuration path to a key.
type Binding struct {
	Path     string
	Key      inject.Key
	Optional bool
}

// Bind maps the value at path to key.
func Bind(path string, key inject.Key) Binding {
	return Binding{Path: path, Key: key}
}

// BindOptional maps the value at path to key when the path exists.
func BindOptional(path string, key inject.Key) Binding {
	return Binding{Path: path, Key: key, Optional: true}
}

// Providers returns a value provider for every binding, with the value
// decoded into the key's type.
func (s *Source) Providers(bindings ...Binding) ([]inject.Provider, error) {
	providers := make([]inject.Provider, 0, len(bindings))

	for _, b := range bindings {
		if b.Key == nil {
			return nil, fmt.Errorf("binding for %q has no key", b.Path)
		}

		v, ok := s.Get(b.Path)
		if !ok {
			if b.Optional {
				continue
			}
			return nil, MissingError{Path: b.Path}
		}

		decoded, err := decode(b.Path, v, b.Key.Type())
		if err != nil {
			return nil, err
		}
		providers = append(providers, inject.Value(b.Key, decoded.Interface()))
	}

	return providers, nil
}

// decode converts a parsed value into t. Strings from dotenv sources are
// parsed as YAML scalars, so "8080" decodes into an int.
func decode(path string, v any, t reflect.Type) (reflect.Value, error) {
	if v != nil && reflect.TypeOf(v).AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(reflect.ValueOf(v))
		return out, nil
	}

	var data []byte
	if s, ok := v.(string); ok {
		if t.Kind() == reflect.String {
			return reflect.ValueOf(s).Convert(t), nil
		}
		data = []byte(s)
	} else {
		var err error
		data, err = yaml.Marshal(v)
		if err != nil {
			return reflect.Value{}, DecodeError{Path: path, Type: t, Cause: err}
		}
	}

	ptr := reflect.New(t)
	if err := yaml.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, DecodeError{Path: path, Type: t, Cause: err}
	}
	return ptr.Elem(), nil
}
