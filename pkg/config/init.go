package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configHeader = `# DokanFS Configuration File
#
# Values can be overridden with environment variables using the DOKANFS_
# prefix, e.g. DOKANFS_LOGGING_LEVEL=DEBUG or DOKANFS_BACKEND_TYPE=mirror.
# Generated by "dokanfs init"; regenerate with "dokanfs init --force".

`

// sectionComments documents each top-level section of the generated file.
var sectionComments = map[string][]string{
	"logging": {
		"Logging",
		"  level:  DEBUG, INFO, WARN, ERROR",
		"  format: text, json",
		"  output: stdout, stderr or a file path",
	},
	"mount": {
		"Mount point and driver options",
		"  mount_point: drive letter (M:\\) or an empty NTFS directory",
		"  timeout: per-request driver timeout",
		"  volume_security_descriptor: base64 self-relative descriptor (optional)",
	},
	"dispatcher": {
		"Call dispatcher",
		"  direct_io: let capable backends read and write driver memory directly",
	},
	"backend": {
		"Filesystem backend",
		"  type: memory, mirror, badger, s3",
		"  Only the section named by type is used.",
		"  mirror.root is required for the mirror backend, s3.bucket for s3.",
	},
	"metrics": {
		"Prometheus metrics, served at http://localhost:<port>/metrics",
	},
	"server": {
		"Process settings",
		"  shutdown_timeout: how long to wait for the volume to unmount",
	},
}

// InitConfig writes a sample configuration file to the default location.
//
// Returns the path of the written file. Fails if the file already exists
// unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML with a header and a comment
// above every top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		lines, ok := sectionComments[key.Value]
		if !ok {
			continue
		}
		commented := make([]string, len(lines))
		for j, line := range lines {
			commented[j] = "# " + line
		}
		key.HeadComment = strings.Join(commented, "\n")
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}
