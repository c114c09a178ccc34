package config

import (
	"path/filepath"

	"github.com/arthur-debert/vendorsync/pkg/paths"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

// Config is the effective configuration of one run.
type Config struct {
	Upstream   Upstream   `koanf:"upstream" toml:"upstream" yaml:"upstream"`
	BaseDir    string     `koanf:"base_dir" toml:"base_dir" yaml:"base_dir"`
	MirrorName string     `koanf:"mirror_name" toml:"mirror_name" yaml:"mirror_name"`
	Target     Target     `koanf:"target" toml:"target" yaml:"target"`
	Version    Version    `koanf:"version" toml:"version" yaml:"version"`
	Manifest   Manifest   `koanf:"manifest" toml:"manifest" yaml:"manifest"`
	Commit     Commit     `koanf:"commit" toml:"commit" yaml:"commit"`
	BuildFiles BuildFiles `koanf:"buildfiles" toml:"buildfiles" yaml:"buildfiles"`
	Major      Major      `koanf:"major" toml:"major" yaml:"major"`
	Embedder   Embedder   `koanf:"embedder" toml:"embedder" yaml:"embedder"`
	Verbose    bool       `koanf:"verbose" toml:"verbose" yaml:"verbose"`
}

// Upstream describes the upstream repository.
type Upstream struct {
	Name       string `koanf:"name" toml:"name" yaml:"name"`
	URL        string `koanf:"url" toml:"url" yaml:"url"`
	WebURL     string `koanf:"web_url" toml:"web_url" yaml:"web_url"`
	Remote     string `koanf:"remote" toml:"remote" yaml:"remote"`
	LkgrSuffix string `koanf:"lkgr_suffix" toml:"lkgr_suffix" yaml:"lkgr_suffix"`
}

// Target describes the downstream repository.
type Target struct {
	Dir          string `koanf:"dir" toml:"dir" yaml:"dir"`
	VendoredPath string `koanf:"vendored_path" toml:"vendored_path" yaml:"vendored_path"`
	CheckFile    string `koanf:"check_file" toml:"check_file" yaml:"check_file"`
	CheckPattern string `koanf:"check_pattern" toml:"check_pattern" yaml:"check_pattern"`
}

// Version locates the version declaration inside the vendored tree.
type Version struct {
	File        string `koanf:"file" toml:"file" yaml:"file"`
	MajorMarker string `koanf:"major_marker" toml:"major_marker" yaml:"major_marker"`
	MinorMarker string `koanf:"minor_marker" toml:"minor_marker" yaml:"minor_marker"`
	BuildMarker string `koanf:"build_marker" toml:"build_marker" yaml:"build_marker"`
	PatchMarker string `koanf:"patch_marker" toml:"patch_marker" yaml:"patch_marker"`
}

// Manifest locates the upstream dependency manifest and ignore file.
type Manifest struct {
	File        string `koanf:"file" toml:"file" yaml:"file"`
	IgnoreFile  string `koanf:"ignore_file" toml:"ignore_file" yaml:"ignore_file"`
	DefaultHost string `koanf:"default_host" toml:"default_host" yaml:"default_host"`
}

// Commit holds the commit message templates.
type Commit struct {
	Update     string `koanf:"update" toml:"update" yaml:"update"`
	Compare    string `koanf:"compare" toml:"compare" yaml:"compare"`
	Dependency string `koanf:"dependency" toml:"dependency" yaml:"dependency"`
	Backport   string `koanf:"backport" toml:"backport" yaml:"backport"`
	Bump       string `koanf:"bump" toml:"bump" yaml:"bump"`
}

// BuildFiles configures the build-file relocation policy. A zero Threshold
// disables it.
type BuildFiles struct {
	Dir         string `koanf:"dir" toml:"dir" yaml:"dir"`
	StashDir    string `koanf:"stash_dir" toml:"stash_dir" yaml:"stash_dir"`
	Threshold   int    `koanf:"threshold" toml:"threshold" yaml:"threshold"`
	TemplateDir string `koanf:"template_dir" toml:"template_dir" yaml:"template_dir"`
}

// Embedder locates the downstream ABI version bumped after a major update.
// The new value is the upstream line number (major*10+minor) plus Offset. An
// empty File disables the bump.
type Embedder struct {
	File   string `koanf:"file" toml:"file" yaml:"file"`
	Marker string `koanf:"marker" toml:"marker" yaml:"marker"`
	Offset int    `koanf:"offset" toml:"offset" yaml:"offset"`
	Title  string `koanf:"title" toml:"title" yaml:"title"`
	Body   string `koanf:"body" toml:"body" yaml:"body"`
}

// Major configures the major workflow.
type Major struct {
	FloatingPatches []string `koanf:"floating_patches" toml:"floating_patches" yaml:"floating_patches"`
}

// MirrorDir is the directory of the local upstream mirror.
func (c *Config) MirrorDir() string {
	return paths.MirrorDir(c.BaseDir, c.MirrorName)
}

// VendoredDir is the absolute path of the vendored tree.
func (c *Config) VendoredDir() string {
	return filepath.Join(c.Target.Dir, c.Target.VendoredPath)
}

// VersionFile is the absolute path of the vendored version declaration.
func (c *Config) VersionFile() string {
	return filepath.Join(c.VendoredDir(), c.Version.File)
}

// Markers returns the version field labels.
func (c *Config) Markers() version.Markers {
	return version.Markers{
		Major: c.Version.MajorMarker,
		Minor: c.Version.MinorMarker,
		Build: c.Version.BuildMarker,
		Patch: c.Version.PatchMarker,
	}
}
