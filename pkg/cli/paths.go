package cli

import (
	"os"
	"path/filepath"
)

// DefaultBaseDir is the per-user state directory under $HOME.
const DefaultBaseDir = ".speechenhance"

// DefaultConfigFile is the config file name inside the base directory.
const DefaultConfigFile = "config.yaml"

// Paths resolves the per-user directory layout:
//
//	~/.speechenhance/config.yaml
//	~/.speechenhance/checkpoints/
//	~/.speechenhance/summaries/
//	~/.speechenhance/generated/
type Paths struct {
	HomeDir string
}

// NewPaths returns Paths rooted at the current user's home directory.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns ~/.speechenhance.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns ~/.speechenhance/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

func (p *Paths) CheckpointDir() string { return filepath.Join(p.BaseDir(), "checkpoints") }
func (p *Paths) SummaryDir() string    { return filepath.Join(p.BaseDir(), "summaries") }
func (p *Paths) GeneratedDir() string  { return filepath.Join(p.BaseDir(), "generated") }
