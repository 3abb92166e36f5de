package problems

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/skilldocs/grader/internal/logger"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/problem"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store holds every authored problem definition, loaded once at startup.
// Definitions are immutable after loading.
type Store interface {
	Get(id string) (*problem.Definition, error)
	List() []*problem.Definition
}

type store struct {
	definitions map[string]*problem.Definition
	ordered     []*problem.Definition
	logger      *zap.SugaredLogger
}

// NewStoreFromDir loads every .json, .yaml and .yml file in dir as one
// problem definition each. A file that fails validation aborts loading;
// shipping a half-valid problem set helps nobody.
func NewStoreFromDir(dir string) (Store, error) {
	log := logger.NewNamedLogger("problems")
	validate := validator.New()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read problems directory %s: %w", dir, err)
	}

	definitions := make(map[string]*problem.Definition)
	var ordered []*problem.Definition

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		def, err := loadDefinition(path, ext, validate)
		if err != nil {
			return nil, fmt.Errorf("failed to load problem file %s: %w", entry.Name(), err)
		}

		if _, exists := definitions[def.ID]; exists {
			return nil, fmt.Errorf("duplicate problem id %q in %s", def.ID, entry.Name())
		}

		definitions[def.ID] = def
		ordered = append(ordered, def)
		log.Infof("Loaded problem %q (%s, %d test cases)", def.ID, def.Difficulty, len(def.TestCases))
	}

	if len(ordered) == 0 {
		log.Warnf("No problem definitions found in %s", dir)
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	return &store{definitions: definitions, ordered: ordered, logger: log}, nil
}

func loadDefinition(path, ext string, validate *validator.Validate) (*problem.Definition, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var def problem.Definition
	if ext == ".json" {
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(&def); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

func (s *store) Get(id string) (*problem.Definition, error) {
	def, exists := s.definitions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", customErr.ErrProblemNotFound, id)
	}
	return def, nil
}

func (s *store) List() []*problem.Definition {
	return s.ordered
}
