package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/neetmock/internal/model"
)

// Load reads one subject per file and indexes them. Files ending in .yaml
// or .yml are parsed as YAML, everything else as JSON. A directory path
// loads every corpus file inside it, sorted by name.
func Load(paths []string) (*Corpus, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	var subjects []model.Subject
	for _, path := range files {
		s, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
		slog.Info("loaded corpus file", "path", path, "subject", s.Key, "chapters", len(s.Chapters))
	}
	return New(subjects), nil
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !isCorpusFile(e.Name()) {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	return files, nil
}

func isCorpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func loadFile(path string) (model.Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Subject{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (model.Subject, error) {
	var s model.Subject
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := validate(s); err != nil {
		return s, fmt.Errorf("validate %s: %w", path, err)
	}
	return s, nil
}

func validate(s model.Subject) error {
	if s.Key == "" {
		return fmt.Errorf("subject key is required")
	}
	if s.Name == "" {
		return fmt.Errorf("subject %s: name is required", s.Key)
	}
	for key, ch := range s.Chapters {
		if ch == nil {
			return fmt.Errorf("chapter %s_%s is empty", s.Key, key)
		}
		for i, q := range ch.Questions {
			if len(q.Options) < 2 {
				return fmt.Errorf("chapter %s_%s question %d: need at least 2 options", s.Key, key, i+1)
			}
			if q.Correct < 0 || q.Correct >= len(q.Options) {
				return fmt.Errorf("chapter %s_%s question %d: correct index %d out of range", s.Key, key, i+1, q.Correct)
			}
		}
	}
	return nil
}
