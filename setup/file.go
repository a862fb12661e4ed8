package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileSetup mirrors the print-setup language for YAML and TOML files. Lengths
// are strings with units ("12.7mm", "10pt"); unitless margins are millimetres.
type fileSetup struct {
	Name          string    `yaml:"name" toml:"name"`
	Page          *filePage `yaml:"page" toml:"page"`
	Font          *fileFont `yaml:"font" toml:"font"`
	LineNumbers   *bool     `yaml:"line-numbers" toml:"line-numbers"`
	Header        *string   `yaml:"header" toml:"header"`
	Footer        *string   `yaml:"footer" toml:"footer"`
	Background    string    `yaml:"background" toml:"background"`
	Foreground    string    `yaml:"foreground" toml:"foreground"`
	Backend       string    `yaml:"backend" toml:"backend"`
	TabWidth      *int      `yaml:"tab-width" toml:"tab-width"`
	GutterPadding string    `yaml:"gutter-padding" toml:"gutter-padding"`
	BandPadding   string    `yaml:"band-padding" toml:"band-padding"`
	Meta          *fileMeta `yaml:"meta" toml:"meta"`
}

type filePage struct {
	Size        string  `yaml:"size" toml:"size"`
	Orientation string  `yaml:"orientation" toml:"orientation"`
	Margin      string  `yaml:"margin" toml:"margin"` // CSS 简写，如 "10mm 15mm"
	Resolution  float64 `yaml:"resolution" toml:"resolution"`
}

type fileFont struct {
	Family string `yaml:"family" toml:"family"`
	Style  string `yaml:"style" toml:"style"`
	Size   string `yaml:"size" toml:"size"`
	Src    string `yaml:"src" toml:"src"`
}

type fileMeta struct {
	Title    string   `yaml:"title" toml:"title"`
	Author   string   `yaml:"author" toml:"author"`
	Subject  string   `yaml:"subject" toml:"subject"`
	Creator  string   `yaml:"creator" toml:"creator"`
	Keywords []string `yaml:"keywords" toml:"keywords"`
}

// LoadFile reads a setup file and picks the format by extension: .yaml, .yml
// and .toml are decoded as data files, anything else is parsed as the
// print-setup language.
func LoadFile(path string) (Setup, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && ext != ".toml" {
		return ParseFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Setup{}, err
	}
	if ext == ".toml" {
		return decodeTOML(filepath.Base(path), data)
	}
	return decodeYAML(filepath.Base(path), data)
}

// DecodeYAML reads settings from a YAML document.
func DecodeYAML(data []byte) (Setup, error) { return decodeYAML("yaml", data) }

// DecodeTOML reads settings from a TOML document.
func DecodeTOML(data []byte) (Setup, error) { return decodeTOML("toml", data) }

func decodeYAML(at string, data []byte) (Setup, error) {
	var fs fileSetup
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return Setup{}, fmt.Errorf("%s: %w", at, err)
	}
	return fs.toSetup(at)
}

func decodeTOML(at string, data []byte) (Setup, error) {
	var fs fileSetup
	if err := toml.Unmarshal(data, &fs); err != nil {
		return Setup{}, fmt.Errorf("%s: %w", at, err)
	}
	return fs.toSetup(at)
}

// toSetup feeds the decoded fields through the same settings as the
// print-setup language so both formats validate identically.
func (fs *fileSetup) toSetup(at string) (Setup, error) {
	s := Default()
	s.Name = fs.Name

	if p := fs.Page; p != nil {
		size := p.Size
		if size == "" {
			size = s.Page.Size.Name
		}
		args := []string{size}
		if p.Orientation != "" {
			args = append(args, p.Orientation)
		}
		if p.Margin != "" {
			args = append(args, "margin")
			args = append(args, strings.Fields(p.Margin)...)
		}
		if p.Resolution != 0 {
			args = append(args, "resolution", strconv.FormatFloat(p.Resolution, 'f', -1, 64))
		}
		if err := s.set(at, "page", args); err != nil {
			return s, err
		}
	}

	if f := fs.Font; f != nil {
		family := f.Family
		if family == "" {
			family = s.Font.Family
		}
		args := []string{family}
		for _, kv := range [][2]string{{"style", f.Style}, {"size", f.Size}, {"src", f.Src}} {
			if kv[1] != "" {
				args = append(args, kv[0], kv[1])
			}
		}
		if err := s.set(at, "font", args); err != nil {
			return s, err
		}
	}

	if fs.LineNumbers != nil {
		s.LineNumbers = *fs.LineNumbers
	}
	if fs.Header != nil {
		s.Config.HeaderTemplate = *fs.Header
	}
	if fs.Footer != nil {
		s.Config.FooterTemplate = *fs.Footer
	}
	if fs.TabWidth != nil {
		if err := s.set(at, "tab-width", []string{strconv.Itoa(*fs.TabWidth)}); err != nil {
			return s, err
		}
	}
	for _, kv := range [][2]string{
		{"background", fs.Background},
		{"foreground", fs.Foreground},
		{"backend", fs.Backend},
		{"gutter-padding", fs.GutterPadding},
		{"band-padding", fs.BandPadding},
	} {
		if kv[1] == "" {
			continue
		}
		if err := s.set(at, kv[0], []string{kv[1]}); err != nil {
			return s, err
		}
	}

	if m := fs.Meta; m != nil {
		if m.Title != "" {
			s.Meta.Title = m.Title
		}
		if m.Author != "" {
			s.Meta.Author = m.Author
		}
		if m.Subject != "" {
			s.Meta.Subject = m.Subject
		}
		if m.Creator != "" {
			s.Meta.Creator = m.Creator
		}
		if len(m.Keywords) > 0 {
			s.Meta.Keywords = m.Keywords
		}
	}
	return s, s.finish()
}
