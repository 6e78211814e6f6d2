// Package content holds the portfolio page data: who the site is about and
// what they have built, studied and worked on.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/venkat210105/portfolio/contact"
)

//go:embed profile.yaml
var defaultProfile []byte

var ErrInvalidProfile = errors.New("invalid profile")

type Profile struct {
	Name           string        `yaml:"name"`
	ShortName      string        `yaml:"short_name"`
	Headline       string        `yaml:"headline"`
	Tagline        string        `yaml:"tagline"`
	About          string        `yaml:"about"`
	Email          string        `yaml:"email"`
	LinkedIn       string        `yaml:"linkedin"`
	GitHub         string        `yaml:"github"`
	ResumeURL      string        `yaml:"resume_url"`
	Skills         []SkillGroup  `yaml:"skills"`
	Projects       []Project     `yaml:"projects"`
	Experience     []Position    `yaml:"experience"`
	Education      []Degree      `yaml:"education"`
	Certifications []Certificate `yaml:"certifications"`
	Footer         string        `yaml:"footer"`
}

type SkillGroup struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

type Project struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Technologies []string `yaml:"technologies"`
	GitHub       string   `yaml:"github"`
	Website      string   `yaml:"website"`
	Achievements []string `yaml:"achievements"`
}

type Position struct {
	Title        string   `yaml:"title"`
	Company      string   `yaml:"company"`
	Duration     string   `yaml:"duration"`
	Description  string   `yaml:"description"`
	Achievements []string `yaml:"achievements"`
}

type Degree struct {
	Degree      string `yaml:"degree"`
	Institution string `yaml:"institution"`
	Score       string `yaml:"score"`
	Period      string `yaml:"period"`
}

type Certificate struct {
	Name   string `yaml:"name"`
	Issuer string `yaml:"issuer"`
	Year   string `yaml:"year"`
}

// Sections returns the page anchors in navigation order.
func Sections() []string {
	return []string{"home", "about", "skills", "projects", "experience", "education", "contact"}
}

// Default returns the profile compiled into the binary.
func Default() (*Profile, error) {
	return Parse(bytes.NewReader(defaultProfile))
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a YAML profile. Unknown keys are an error so
// typos do not silently drop a section.
func Parse(r io.Reader) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields the page cannot render without.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if err := contact.ValidateEmail(p.Email); err != nil {
		return fmt.Errorf("%w: email %q: %w", ErrInvalidProfile, p.Email, err)
	}
	for i, g := range p.Skills {
		if g.Category == "" {
			return fmt.Errorf("%w: skill group %d has no category", ErrInvalidProfile, i)
		}
	}
	for i, pr := range p.Projects {
		if pr.Title == "" {
			return fmt.Errorf("%w: project %d has no title", ErrInvalidProfile, i)
		}
	}
	return nil
}

// DisplayName is the short name used in the nav bar.
func (p *Profile) DisplayName() string {
	if p.ShortName != "" {
		return p.ShortName
	}
	return p.Name
}

var (
	markdown  = goldmark.New()
	policy    *bluemonday.Policy
	policyOne sync.Once
)

func sanitizer() *bluemonday.Policy {
	policyOne.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// RenderMarkdown converts markdown to sanitized HTML safe to embed in a
// template.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(sanitizer().SanitizeBytes(buf.Bytes())), nil
}

// AboutHTML renders the biography.
func (p *Profile) AboutHTML() (template.HTML, error) {
	return RenderMarkdown(p.About)
}
