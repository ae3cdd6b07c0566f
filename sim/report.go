package sim

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var lang = language.English

// Encode writes r as YAML. With compress set the stream is zstd encoded.
func (r *Report) Encode(w io.Writer, compress bool) error {
	if !compress {
		return yaml.NewEncoder(w).Encode(r)
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := yaml.NewEncoder(zw).Encode(r); err != nil {
		zw.Close()
		return fmt.Errorf("encoding report: %w", err)
	}
	return zw.Close()
}

// WriteFile saves r to path. Paths ending in .zst are compressed.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f, strings.HasSuffix(path, ".zst")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadReport decodes a report written by Encode.
func ReadReport(rd io.Reader, compressed bool) (*Report, error) {
	if compressed {
		zr, err := zstd.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		rd = zr
	}
	var r Report
	if err := yaml.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}

// Table renders the summary for a terminal.
func (r *Report) Table() string {
	p := message.NewPrinter(lang)
	stat := func(s Summary) string {
		return p.Sprintf("%.1f ± %.1f (min %.0f, med %.0f, p90 %.0f, max %.0f)",
			s.Mean, s.StdDev, s.Min, s.Median, s.P90, s.Max)
	}
	keys := []string{"Variant", "Games", "Game Over", "Seed", "Elapsed", "Score", "Pieces", "Chains"}
	msg := map[string]string{
		"Variant":   string(r.Variant),
		"Games":     p.Sprintf("%d", r.Games),
		"Game Over": p.Sprintf("%d", r.GameOver),
		"Seed":      fmt.Sprintf("%d", r.Seed),
		"Elapsed":   r.Elapsed.String(),
		"Score":     stat(r.Score),
		"Pieces":    stat(r.Pieces),
		"Chains":    stat(r.Chains),
	}
	lengths := make([]int, 0, len(r.ChainCounts))
	for c := range r.ChainCounts {
		lengths = append(lengths, c)
	}
	slices.Sort(lengths)
	for _, c := range lengths {
		k := fmt.Sprintf("%d-chains", c)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d", r.ChainCounts[c])
	}
	return fmtTable("Simulation", keys, msg)
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	keyW, valW := runewidth.StringWidth(title), 0
	for _, k := range keys {
		keyW = max(keyW, runewidth.StringWidth(k))
		valW = max(valW, runewidth.StringWidth(msg[k]))
	}
	keyW += 2
	valW += 2

	var sb strings.Builder
	divider := "+" + strings.Repeat("-", keyW) + "+" + strings.Repeat("-", valW) + "+\n"
	inner := keyW + valW + 1
	left := (inner - runewidth.StringWidth(title)) / 2
	sb.WriteString("+" + strings.Repeat("-", inner) + "+\n")
	sb.WriteString("|" + blank(left) + title + blank(inner-left-runewidth.StringWidth(title)) + "|\n")
	sb.WriteString(divider)
	for _, k := range keys {
		v := msg[k]
		sb.WriteString("| " + k + blank(keyW-2-runewidth.StringWidth(k)) +
			" | " + v + blank(valW-2-runewidth.StringWidth(v)) + " |\n")
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
