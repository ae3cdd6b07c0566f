// Package settings holds the board setup record shared by every variant.
package settings

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"

	"blockfall/block"
	"blockfall/piece"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidArgument = block.ErrInvalidArgument
	ErrUnknownVariant  = fmt.Errorf("%w: unknown variant", ErrInvalidArgument)
)

type Variant string

const (
	Puyo    Variant = "puyo"
	Stacker Variant = "stacker"
	Columns Variant = "columns"
	Clicker Variant = "clicker"
)

var Variants = []Variant{Puyo, Stacker, Columns, Clicker}

func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if !slices.Contains(Variants, v) {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	return v, nil
}

// Settings is consumed by value when a board is built.
type Settings struct {
	Variant Variant `yaml:"variant" mapstructure:"variant"`
	Width   int     `yaml:"width" mapstructure:"width"`
	Height  int     `yaml:"height" mapstructure:"height"`
	Colors  int     `yaml:"colors" mapstructure:"colors"`
	// PopRequirement is the group size or run length that clears.
	PopRequirement int `yaml:"pop_requirement" mapstructure:"pop_requirement"`
	// FallSpeed is how many rows per second the piece falls on its own.
	FallSpeed float64 `yaml:"fall_speed" mapstructure:"fall_speed"`
	// EffectSpeed is the fall animation rate in rows per second.
	EffectSpeed float64 `yaml:"effect_speed" mapstructure:"effect_speed"`
	// Shapes names the polyominoes dealt by the stacker.
	Shapes []string `yaml:"shapes,omitempty" mapstructure:"shapes"`
	// Seed feeds every random source of the board. 0 picks one.
	Seed uint64 `yaml:"seed,omitempty" mapstructure:"seed"`
}

// ShapeMask converts Shapes into a mask. No shapes means the tetrominoes.
func (s Settings) ShapeMask() (piece.ShapeMask, error) {
	if len(s.Shapes) == 0 {
		return piece.Tetrominoes, nil
	}
	var m piece.ShapeMask
	for _, name := range s.Shapes {
		k, err := piece.ParseKind(name)
		if err != nil {
			return 0, err
		}
		m |= piece.MaskOf(k)
	}
	return m, nil
}

// Palette returns the colors the board deals.
func (s Settings) Palette() ([]block.ID, error) { return block.Palette(s.Colors) }

// Validate checks every field and joins all problems found.
func (s Settings) Validate() error {
	var errs []error
	if !slices.Contains(Variants, s.Variant) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownVariant, s.Variant))
	}
	if s.Width < 3 || s.Height < 3 {
		errs = append(errs, fmt.Errorf("%w: board must be at least 3x3, got %dx%d", ErrInvalidArgument, s.Width, s.Height))
	}
	if _, err := s.Palette(); err != nil {
		errs = append(errs, err)
	}
	if s.PopRequirement < 1 {
		errs = append(errs, fmt.Errorf("%w: pop requirement must be positive, got %d", ErrInvalidArgument, s.PopRequirement))
	}
	if s.FallSpeed <= 0 || s.EffectSpeed <= 0 {
		errs = append(errs, fmt.Errorf("%w: speeds must be positive", ErrInvalidArgument))
	}
	if _, err := s.ShapeMask(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

//go:embed presets.yaml
var presetsYAML []byte

var presets map[Variant]Settings

func init() {
	var err error
	presets, err = Decode(bytes.NewReader(presetsYAML))
	if err != nil {
		panic(fmt.Sprintf("settings: embedded presets: %v", err))
	}
}

// Preset returns the default settings of a variant.
func Preset(v Variant) (Settings, error) {
	s, ok := presets[v]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	s.Shapes = slices.Clone(s.Shapes)
	return s, nil
}

// Decode reads a presets document: a map from variant to settings. Each entry
// gets its variant from its key and must validate.
func Decode(r io.Reader) (map[Variant]Settings, error) {
	var raw map[Variant]Settings
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding presets: %w", err)
	}
	for v, s := range raw {
		s.Variant = v
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", v, err)
		}
		raw[v] = s
	}
	return raw, nil
}

// Encode writes s as YAML.
func (s Settings) Encode() ([]byte, error) { return yaml.Marshal(s) }
