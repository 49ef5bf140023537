package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/term"

	"github.com/ernie/skin-inspect/internal/assets"
	"github.com/ernie/skin-inspect/internal/pipeline"
)

// wantPretty reports whether to print for a human: stdout is a terminal
// and --json was not given.
func wantPretty(w io.Writer) bool {
	if flagJSON {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMaterial(w io.Writer, m *pipeline.ResolvedRenderMaterial) error {
	if !wantPretty(w) {
		return writeJSON(w, struct {
			*pipeline.ResolvedRenderMaterial
			Fingerprint string `json:"fingerprint"`
		}{m, m.Fingerprint()})
	}

	fmt.Fprintf(w, "Item:      %s (weapon=%q skin=%q variant=%q)\n",
		m.Identity.LookupKey(), m.Identity.WeaponKey, m.Identity.SkinKey, m.Identity.Variant)
	fmt.Fprintf(w, "Model:     %s (legacy=%v, from %s)\n", m.Model.Path, m.Model.IsLegacy, m.Model.Source)
	if m.Pattern.Found() {
		fmt.Fprintf(w, "Pattern:   %s (%s via %q)\n", m.Pattern.Pattern, m.Pattern.Source, m.Pattern.Key)
	} else {
		fmt.Fprintln(w, "Pattern:   none")
	}
	if m.DefinitionPath != "" {
		fmt.Fprintf(w, "Material:  %s\n", m.DefinitionPath)
	}
	fmt.Fprintln(w, "Textures:")
	for _, ch := range assets.Channels {
		if t := m.Textures[ch]; t != nil {
			fmt.Fprintf(w, "  %-13s %s (%dx%d %s)\n", ch, t.Path, t.Width, t.Height, t.Format)
		} else {
			fmt.Fprintf(w, "  %-13s -\n", ch)
		}
	}
	fmt.Fprintf(w, "Shading:   roughness=%.3f metalness=%.3f transparent=%v neutral=%v\n",
		m.Roughness, m.Metalness, m.Transparent, m.Neutral)
	fmt.Fprintf(w, "Seed/wear: %d / %.4f\n", m.PaintSeed, m.Wear)
	fmt.Fprintf(w, "Fingerprint: %s\n", m.Fingerprint())
	return nil
}

func printPlan(w io.Writer, plan *pipeline.Plan) error {
	if !wantPretty(w) {
		return writeJSON(w, plan)
	}
	fmt.Fprintf(w, "Item:    %s\n", plan.Identity.LookupKey())
	fmt.Fprintf(w, "Model:   %s (legacy=%v, from %s)\n", plan.Model.Path, plan.Model.IsLegacy, plan.Model.Source)
	if !plan.Pattern.Found() {
		fmt.Fprintln(w, "Pattern: none, item renders with the neutral material")
		return nil
	}
	fmt.Fprintf(w, "Pattern: %s (%s)\n", plan.Pattern.Pattern, plan.Pattern.Source)
	fmt.Fprintln(w, "Definition candidates:")
	for i, d := range plan.Definitions {
		fmt.Fprintf(w, "  %2d. %s [%s]\n", i+1, d.Path, d.Format)
	}
	for _, ch := range assets.Channels {
		fmt.Fprintf(w, "%s candidates:\n", ch)
		for i, p := range plan.Textures[ch] {
			fmt.Fprintf(w, "  %2d. %s\n", i+1, p)
		}
	}
	return nil
}

func printDefinition(w io.Writer, path string, def *assets.MaterialDefinition) error {
	if !wantPretty(w) {
		return writeJSON(w, def)
	}
	fmt.Fprintf(w, "%s\n", path)
	if def.Shader != "" {
		fmt.Fprintf(w, "  shader: %s\n", def.Shader)
	}
	for _, ch := range assets.Channels {
		if p := def.Path(ch); p != "" {
			fmt.Fprintf(w, "  %-13s %s\n", ch, p)
		}
	}
	keys := make([]string, 0, len(def.Parameters))
	for k := range def.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %g\n", k, def.Parameters[k])
	}
	fmt.Fprintf(w, "  base roughness: %.3f\n", def.BaseRoughness())
	return nil
}
