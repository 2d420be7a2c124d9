package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"halfbyte/internal/driver"
	"halfbyte/internal/layout"
)

const manifestName = "halfbyte.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	meta   toml.MetaData
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Target  targetConfig  `toml:"target"`
	Output  outputConfig  `toml:"output"`
	Build   buildConfig   `toml:"build"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type targetConfig struct {
	Name        string `toml:"name"`
	LoadAddress uint16 `toml:"load_address"`
	BasicStub   bool   `toml:"basic_stub"`
	VarBase     uint16 `toml:"var_base"`
	VarLimit    uint16 `toml:"var_limit"`
}

type outputConfig struct {
	Format   string `toml:"format"`
	Dir      string `toml:"dir"`
	DiskName string `toml:"disk_name"`
	DiskID   string `toml:"disk_id"`
}

type buildConfig struct {
	MaxDiagnostics int  `toml:"max_diagnostics"`
	Cache          bool `toml:"cache"`
}

// buildSettings is the manifest folded over the defaults. Command-line flags
// are applied on top by each command.
type buildSettings struct {
	Name           string
	Target         layout.Target
	Output         driver.OutputOptions
	MaxDiagnostics int
	Cache          bool
}

func defaultSettings() buildSettings {
	return buildSettings{
		Target:         layout.C64(),
		Output:         driver.OutputOptions{Format: driver.FormatPRG, Dir: "."},
		MaxDiagnostics: 100,
	}
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	path, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, true, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, true, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	return &projectManifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
		meta:   meta,
	}, true, nil
}

// settings folds the manifest over the defaults. Relative output
// directories are taken from the manifest's directory.
func (m *projectManifest) settings() (buildSettings, error) {
	s := defaultSettings()
	s.Name = m.Config.Package.Name
	s.Output.DiskName = m.Config.Package.Name

	t := m.Config.Target
	if m.meta.IsDefined("target", "name") {
		base, ok := layout.LookupTarget(t.Name)
		if !ok {
			return s, fmt.Errorf("%s: unknown target %q", m.Path, t.Name)
		}
		s.Target = base
	}
	if m.meta.IsDefined("target", "load_address") {
		s.Target.LoadAddress = t.LoadAddress
	}
	if m.meta.IsDefined("target", "basic_stub") {
		s.Target.BasicStub = t.BasicStub
	}
	if m.meta.IsDefined("target", "var_base") {
		s.Target.VarBase = t.VarBase
	}
	if m.meta.IsDefined("target", "var_limit") {
		s.Target.VarLimit = t.VarLimit
	}
	if err := s.Target.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", m.Path, err)
	}

	o := m.Config.Output
	if o.Format != "" {
		s.Output.Format = strings.ToLower(o.Format)
	}
	switch s.Output.Format {
	case driver.FormatPRG, driver.FormatD64:
	default:
		return s, fmt.Errorf("%s: [output].format must be prg or d64, got %q", m.Path, o.Format)
	}
	s.Output.Dir = m.Root
	if o.Dir != "" {
		s.Output.Dir = o.Dir
		if !filepath.IsAbs(o.Dir) {
			s.Output.Dir = filepath.Join(m.Root, filepath.FromSlash(o.Dir))
		}
	}
	if o.DiskName != "" {
		s.Output.DiskName = o.DiskName
	}
	if o.DiskID != "" {
		s.Output.DiskID = o.DiskID
	}

	if m.meta.IsDefined("build", "max_diagnostics") {
		if m.Config.Build.MaxDiagnostics < 0 {
			return s, fmt.Errorf("%s: [build].max_diagnostics must not be negative", m.Path)
		}
		s.MaxDiagnostics = m.Config.Build.MaxDiagnostics
	}
	s.Cache = m.Config.Build.Cache
	return s, nil
}

// resolveSettings loads the manifest above the working directory, if any.
func resolveSettings() (buildSettings, *projectManifest, error) {
	m, ok, err := loadProjectManifest(".")
	if err != nil {
		return buildSettings{}, nil, err
	}
	if !ok {
		return defaultSettings(), nil, nil
	}
	s, err := m.settings()
	return s, m, err
}
