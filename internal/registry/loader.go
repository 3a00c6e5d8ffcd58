package registry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"routerprobe/internal/common/fsutil"
	"routerprobe/pkg/types"
)

// DefaultModelsFile is read when neither a file nor inline ids are configured.
const DefaultModelsFile = "models.json"

// modelsDoc is the object form of a models file: {"models": [...]}.
type modelsDoc struct {
	Models []string `json:"models" yaml:"models"`
}

// Load reads a list of model ids from path. The format follows the extension:
// .json and .yaml/.yml hold either a bare list or {"models": [...]}; any
// other extension is read one id per line with '#' comments.
// Ids are trimmed, blanks dropped and duplicates removed keeping first position.
func Load(path string) ([]types.ModelID, error) {
	p, err := fsutil.Resolve(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}
	var raw []string
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".json":
		raw, err = decodeJSON(b)
	case ".yaml", ".yml":
		raw, err = decodeYAML(b)
	default:
		raw, err = decodeLines(b)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(p), err)
	}
	return Dedup(raw), nil
}

func decodeJSON(b []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc modelsDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Models, nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeYAML(b []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.MappingNode {
		var doc modelsDoc
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Models, nil
	}
	var list []string
	if err := root.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeLines(b []byte) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// Dedup trims ids, drops blanks and keeps the first occurrence of each id.
func Dedup(ids []string) []types.ModelID {
	seen := make(map[string]struct{}, len(ids))
	out := make([]types.ModelID, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, types.ModelID(id))
	}
	return out
}
