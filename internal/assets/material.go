package assets

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// ErrNotDefinition is returned for content that does not parse into a usable
// material definition. Callers treat it like a missing file.
var ErrNotDefinition = errors.New("not a material definition")

// Format selects the material-definition dialect.
type Format int

const (
	// FormatPrimary is the layered .vmat dialect: bare or quoted keys such as
	// TextureColor and g_flPaintRoughness inside Layer blocks.
	FormatPrimary Format = iota
	// FormatCompact is the legacy .vmt dialect: a quoted shader name followed
	// by a block of "$key" "value" pairs.
	FormatCompact
)

func (f Format) String() string {
	switch f {
	case FormatPrimary:
		return "primary"
	case FormatCompact:
		return "compact"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatForPath guesses the dialect from a file extension. Anything that is
// not .vmt is read as the primary dialect.
func FormatForPath(p string) Format {
	if strings.EqualFold(path.Ext(p), ".vmt") {
		return FormatCompact
	}
	return FormatPrimary
}

// Canonical parameter names. Dialect-specific spellings are also kept under
// their own lower-cased key.
const (
	ParamRoughness = "roughness"
	ParamMetalness = "metalness"
)

// DefaultRoughness is the base paint roughness when a definition has none.
const DefaultRoughness = 0.5

// MaterialDefinition is a parsed material file. Empty paths mean the channel
// is not used.
type MaterialDefinition struct {
	Shader        string             `json:"shader,omitempty"`
	ColorPath     string             `json:"colorPath,omitempty"`
	NormalMapPath string             `json:"normalMapPath,omitempty"`
	RoughnessPath string             `json:"roughnessPath,omitempty"`
	MetalnessPath string             `json:"metalnessPath,omitempty"`
	AOPath        string             `json:"aoPath,omitempty"`
	MaskPath      string             `json:"maskPath,omitempty"`
	Parameters    map[string]float64 `json:"parameters,omitempty"`
}

// Path returns the texture path the definition names for a channel.
func (d *MaterialDefinition) Path(ch Channel) string {
	if d == nil {
		return ""
	}
	switch ch {
	case ChannelColor:
		return d.ColorPath
	case ChannelNormal:
		return d.NormalMapPath
	case ChannelRoughness:
		return d.RoughnessPath
	case ChannelMetalness:
		return d.MetalnessPath
	case ChannelAO:
		return d.AOPath
	case ChannelMask:
		return d.MaskPath
	}
	return ""
}

func (d *MaterialDefinition) setPath(ch Channel, p string) bool {
	dst := map[Channel]*string{
		ChannelColor:     &d.ColorPath,
		ChannelNormal:    &d.NormalMapPath,
		ChannelRoughness: &d.RoughnessPath,
		ChannelMetalness: &d.MetalnessPath,
		ChannelAO:        &d.AOPath,
		ChannelMask:      &d.MaskPath,
	}[ch]
	// First reference wins.
	if dst == nil || *dst != "" {
		return false
	}
	*dst = p
	return true
}

// Param returns a numeric parameter or fallback when absent.
func (d *MaterialDefinition) Param(name string, fallback float64) float64 {
	if d == nil {
		return fallback
	}
	if v, ok := d.Parameters[name]; ok {
		return v
	}
	return fallback
}

// BaseRoughness is the paint roughness before wear, DefaultRoughness if unset.
func (d *MaterialDefinition) BaseRoughness() float64 {
	return d.Param(ParamRoughness, DefaultRoughness)
}

// channelKeys maps lower-cased keys of each dialect to texture channels.
var channelKeys = map[Format]map[string]Channel{
	FormatPrimary: {
		"texturecolor":            ChannelColor,
		"texturenormal":           ChannelNormal,
		"textureroughness":        ChannelRoughness,
		"texturemetalness":        ChannelMetalness,
		"textureambientocclusion": ChannelAO,
		"textureao":               ChannelAO,
		"texturemask":             ChannelMask,
		"texturealpha":            ChannelMask,
	},
	FormatCompact: {
		"$basetexture":          ChannelColor,
		"$bumpmap":              ChannelNormal,
		"$normalmap":            ChannelNormal,
		"$roughnesstexture":     ChannelRoughness,
		"$phongexponenttexture": ChannelRoughness,
		"$metalnesstexture":     ChannelMetalness,
		"$envmapmask":           ChannelMetalness,
		"$aotexture":            ChannelAO,
		"$masks1":               ChannelMask,
		"$alphamask":            ChannelMask,
	},
}

// paramKeys maps dialect parameter spellings to canonical names.
var paramKeys = map[Format]map[string]string{
	FormatPrimary: {
		"g_flpaintroughness": ParamRoughness,
		"g_flpaintmetalness": ParamMetalness,
	},
	FormatCompact: {
		"$paintroughness": ParamRoughness,
		"$metalness":      ParamMetalness,
	},
}

// ParseDefinitionAsset sniffs fetched content before parsing it. HTML error
// pages come back as ErrNotFound, never as a parse result.
func ParseDefinitionAsset(a *Asset, format Format) (*MaterialDefinition, error) {
	if IsHTMLErrorPage(a.ContentType, a.Body) {
		return nil, fmt.Errorf("%w: %s is an html page", ErrNotFound, a.Path)
	}
	def, err := ParseDefinition(bytes.NewReader(a.Body), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path, err)
	}
	return def, nil
}

// ParseDefinition parses a material definition in the given dialect. Unknown
// keys are ignored and texture references are picked up at any nesting depth.
// Content with no recognised texture or numeric key, or with unbalanced
// closing braces, yields ErrNotDefinition.
func ParseDefinition(r io.Reader, format Format) (*MaterialDefinition, error) {
	toks, err := tokenizeDefinition(r)
	if err != nil {
		return nil, err
	}

	def := &MaterialDefinition{Parameters: make(map[string]float64)}
	channels := channelKeys[format]
	params := paramKeys[format]
	usable := 0
	depth := 0

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.isBrace('{') {
			depth++
			continue
		}
		if tok.isBrace('}') {
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced '}' on line %d", ErrNotDefinition, tok.line)
			}
			continue
		}
		if i+1 >= len(toks) {
			break
		}
		next := toks[i+1]

		// Block header, e.g. "VertexLitGeneric" or Layer0.
		if next.isBrace('{') {
			if format == FormatCompact && depth == 0 && def.Shader == "" {
				def.Shader = strings.ToLower(tok.text)
			}
			continue
		}
		if next.isBrace('}') || next.line != tok.line {
			continue
		}

		i++
		key := strings.ToLower(tok.text)
		value := next.text

		if key == "shader" && format == FormatPrimary {
			def.Shader = strings.ToLower(value)
			continue
		}
		if ch, ok := channels[key]; ok {
			if p := normalizeDefinitionPath(value, format); p != "" && def.setPath(ch, p) {
				usable++
			}
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			if _, seen := def.Parameters[key]; !seen {
				def.Parameters[key] = v
				usable++
			}
			if canon, ok := params[key]; ok {
				if _, seen := def.Parameters[canon]; !seen {
					def.Parameters[canon] = v
				}
			}
		}
	}

	if usable == 0 {
		return nil, fmt.Errorf("%w: no usable keys", ErrNotDefinition)
	}
	return def, nil
}

// normalizeDefinitionPath cleans a texture reference. The compact dialect
// names textures relative to materials/.
func normalizeDefinitionPath(p string, format Format) string {
	p = NormalizePath(p)
	if p == "" {
		return ""
	}
	if format == FormatCompact && !strings.HasPrefix(p, "materials/") {
		p = "materials/" + p
	}
	return p
}

// NormalizePath lower-cases an asset path, converts backslashes and drops
// any leading slash.
func NormalizePath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimLeft(p, "/")
}

type defToken struct {
	text   string
	quoted bool
	line   int
}

func (t defToken) isBrace(b byte) bool {
	return !t.quoted && len(t.text) == 1 && t.text[0] == b
}

// tokenizeDefinition splits definition text into quoted strings, bare words
// and braces, dropping // and /* */ comments outside quotes.
func tokenizeDefinition(r io.Reader) ([]defToken, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer for large definition files

	var toks []defToken
	inBlockComment := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		for i := 0; i < len(line); {
			if inBlockComment {
				end := strings.Index(line[i:], "*/")
				if end < 0 {
					i = len(line)
					continue
				}
				i += end + 2
				inBlockComment = false
				continue
			}

			c := line[i]
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				i++
			case strings.HasPrefix(line[i:], "//"):
				i = len(line)
			case strings.HasPrefix(line[i:], "/*"):
				inBlockComment = true
				i += 2
			case c == '=':
				// KV3 writes "key = value"; the separator carries nothing.
				i++
			case c == '{' || c == '}':
				toks = append(toks, defToken{text: line[i : i+1], line: lineNo})
				i++
			case c == '"':
				// Unterminated quotes run to end of line.
				end := strings.IndexByte(line[i+1:], '"')
				if end < 0 {
					toks = append(toks, defToken{text: line[i+1:], quoted: true, line: lineNo})
					i = len(line)
					continue
				}
				toks = append(toks, defToken{text: line[i+1 : i+1+end], quoted: true, line: lineNo})
				i += end + 2
			default:
				start := i
				for i < len(line) && !strings.ContainsRune(" \t\r{}\"=", rune(line[i])) && !strings.HasPrefix(line[i:], "//") {
					i++
				}
				toks = append(toks, defToken{text: line[start:i], line: lineNo})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return toks, nil
}
