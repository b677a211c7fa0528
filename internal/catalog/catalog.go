// Package catalog provides the static, read-only writing content: story
// categories with their prompts, the story structure lesson and the
// per-stage writing hints.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/story-master/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultDocument []byte

// Category is a themed story type. A category carries either a flat prompt
// list, per-stage story starters, or both.
type Category struct {
	ID            int       `yaml:"id" json:"id"`
	Name          string    `yaml:"name" json:"name" validate:"required"`
	Description   string    `yaml:"description" json:"description"`
	Icon          string    `yaml:"icon" json:"icon"`
	Style         string    `yaml:"style" json:"style"`
	Prompts       []string  `yaml:"prompts" json:"prompts,omitempty"`
	StoryStarters *Starters `yaml:"story_starters" json:"story_starters,omitempty"`
}

// Starters holds independent string lists keyed by stage.
type Starters struct {
	Introduction []string `yaml:"introduction" json:"introduction"`
	Middle       []string `yaml:"middle" json:"middle"`
	Conclusion   []string `yaml:"conclusion" json:"conclusion"`
}

// For returns the list for a stage key, or nil for an unknown key.
func (s *Starters) For(stageKey string) []string {
	if s == nil {
		return nil
	}
	switch stageKey {
	case types.StageKeyIntroduction:
		return s.Introduction
	case types.StageKeyMiddle:
		return s.Middle
	case types.StageKeyConclusion:
		return s.Conclusion
	}
	return nil
}

// PromptsFor returns the prompt candidates for a stage. Categories without
// story starters fall back to their flat prompt list for every stage.
func (c *Category) PromptsFor(stageKey string) []string {
	if list := c.StoryStarters.For(stageKey); len(list) > 0 {
		return list
	}
	return c.Prompts
}

// Clone returns a deep copy of the starter lists.
func (s *Starters) Clone() *Starters {
	if s == nil {
		return nil
	}
	return &Starters{
		Introduction: slices.Clone(s.Introduction),
		Middle:       slices.Clone(s.Middle),
		Conclusion:   slices.Clone(s.Conclusion),
	}
}

// Clone returns a deep copy that shares no slices with c.
func (c *Category) Clone() *Category {
	out := *c
	out.Prompts = slices.Clone(c.Prompts)
	out.StoryStarters = c.StoryStarters.Clone()
	return &out
}

// LessonPart is one page of the story structure lesson.
type LessonPart struct {
	ID          int      `yaml:"id" json:"id"`
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Icon        string   `yaml:"icon" json:"icon"`
	Style       string   `yaml:"style" json:"style"`
	Details     string   `yaml:"details" json:"details"`
	Tips        []string `yaml:"tips" json:"tips"`
	Examples    []string `yaml:"examples" json:"examples"`
}

// Lesson is the story structure lesson.
type Lesson struct {
	Title        string       `yaml:"title" json:"title"`
	Introduction string       `yaml:"introduction" json:"introduction"`
	Parts        []LessonPart `yaml:"parts" json:"parts" validate:"min=1"`
}

// Catalog is the whole content document.
type Catalog struct {
	Version       int           `validate:"gte=1"`
	Categories    []Category    `validate:"min=1,unique=Name,dive"`
	Lesson        Lesson
	WritingHints  Starters
	WritingTips   []string
	SampleStories []types.Story
}

type document struct {
	Version       int              `yaml:"version"`
	Categories    []Category       `yaml:"categories"`
	Lesson        Lesson           `yaml:"lesson"`
	WritingHints  Starters         `yaml:"writing_hints"`
	WritingTips   []string         `yaml:"writing_tips"`
	SampleStories []map[string]any `yaml:"sample_stories"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog. It is parsed once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultDocument)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded catalog as
// a programming error.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads and validates a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse validates a YAML catalog document against the catalog schema and
// decodes it.
func Parse(data []byte) (*Catalog, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if err := ValidateDocument(generic); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	samples, err := normalizeSamples(doc.SampleStories)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		Version:       doc.Version,
		Categories:    doc.Categories,
		Lesson:        doc.Lesson,
		WritingHints:  doc.WritingHints,
		WritingTips:   doc.WritingTips,
		SampleStories: samples,
	}
	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// normalizeSamples runs bundled sample stories through the same shape
// adapter the store client uses.
func normalizeSamples(raw []map[string]any) ([]types.Story, error) {
	stories := make([]types.Story, 0, len(raw))
	for i, item := range raw {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("sample story %d: %w", i, err)
		}
		s, err := types.NormalizeStory(data)
		if err != nil {
			return nil, fmt.Errorf("sample story %d: %w", i, err)
		}
		if s.ID != "" {
			s.ID = "sample-" + s.ID
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// CategoryByName finds a category case-insensitively.
func (c *Catalog) CategoryByName(name string) (*Category, bool) {
	for i := range c.Categories {
		if strings.EqualFold(c.Categories[i].Name, name) {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// CategoryByID finds a category by its numeric id.
func (c *Catalog) CategoryByID(id int) (*Category, bool) {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// Hints returns the writing hints for a stage key.
func (c *Catalog) Hints(stageKey string) []string {
	return c.WritingHints.For(stageKey)
}
