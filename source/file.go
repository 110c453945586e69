package source

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-confbind/param"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type FileType string

const (
	FileTypeYAML   FileType = "yaml"
	FileTypeTOML   FileType = "toml"
	FileTypeJSON   FileType = "json"
	FileTypeDotenv FileType = "dotenv"
)

func (f FileType) String() string {
	return string(f)
}

func (f FileType) Valid() error {
	switch f {
	case FileTypeJSON, FileTypeYAML, FileTypeTOML, FileTypeDotenv:
		return nil
	default:
		return errors.New("invalid config file type", errors.CategoryValidation).
			WithTextCode("INVALID_FILE_TYPE").
			WithMetadata(map[string]any{
				"file_type": string(f),
				"valid_types": []string{
					string(FileTypeJSON),
					string(FileTypeYAML),
					string(FileTypeTOML),
					string(FileTypeDotenv),
				},
			})
	}
}

// Parser returns the koanf parser for structured file types, nil for
// dotenv files.
func (f FileType) Parser() koanf.Parser {
	switch f {
	case FileTypeJSON:
		return json.Parser()
	case FileTypeTOML:
		return toml.Parser()
	case FileTypeYAML:
		return yaml.Parser()
	default:
		return nil
	}
}

// InferFileType maps a file extension to its type. Unknown extensions
// yield def, or JSON when def is empty.
func InferFileType(path string, def ...FileType) FileType {
	base := strings.ToLower(filepath.Base(path))
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return FileTypeDotenv
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FileTypeTOML
	case ".json":
		return FileTypeJSON
	case ".yaml", ".yml":
		return FileTypeYAML
	case ".env":
		return FileTypeDotenv
	}

	if len(def) > 0 && def[0] != "" {
		return def[0]
	}
	return FileTypeJSON
}

// File loads a JSON, YAML, TOML or dotenv file and snapshots it. Structured
// files are interpolated before the snapshot is taken.
func File(path string, opts ...Option) (*Snapshot, error) {
	ft := InferFileType(path)
	if ft == FileTypeDotenv {
		return Dotenv(path, opts...)
	}

	o := newOptions(opts...)
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), ft.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from file").
			WithTextCode("FILE_LOAD_FAILED").
			WithMetadata(map[string]any{
				"filepath":  path,
				"file_type": string(ft),
			})
	}

	Interpolate(k, o.passes, o.solvers...)
	s := snapshotKoanf(k, o)
	o.logger.Debug("file source loaded", "filepath", path, "file_type", ft, "keys", s.Len())
	return s, nil
}

// Dotenv loads a dotenv file. Variable names are read as parameters, so
// DB_HOST answers for db.host.
func Dotenv(path string, opts ...Option) (*Snapshot, error) {
	o := newOptions(opts...)
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load dotenv file").
			WithTextCode("DOTENV_LOAD_FAILED").
			WithMetadata(map[string]any{
				"filepath": path,
			})
	}

	s := &Snapshot{values: make(map[param.Parameter]string, len(values))}
	for name, v := range values {
		p, err := param.New(name)
		if err != nil {
			o.logger.Debug("skipping key", "key", name, "error", err)
			continue
		}
		s.values[p] = v
	}
	o.logger.Debug("dotenv source loaded", "filepath", path, "keys", s.Len())
	return s, nil
}

func loadKoanf(p koanf.Provider, o *options, interpolate bool, code, msg string) (*Snapshot, error) {
	k := koanf.New(".")
	if err := k.Load(p, nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, msg).
			WithTextCode(code)
	}
	if interpolate {
		Interpolate(k, o.passes, o.solvers...)
	}
	return snapshotKoanf(k, o), nil
}
