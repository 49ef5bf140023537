// Package pipeline resolves an inspected item into a render material: mesh
// selection, pattern lookup, definition parsing, texture search and shading.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ernie/skin-inspect/internal/assets"
	"github.com/ernie/skin-inspect/internal/catalog"
	"github.com/ernie/skin-inspect/internal/identity"
	"github.com/ernie/skin-inspect/internal/shading"
)

// DefaultProbeTimeout bounds a single candidate fetch.
const DefaultProbeTimeout = 8 * time.Second

// Options tune a Resolver.
type Options struct {
	ProbeTimeout   time.Duration
	MaxTextureSize int
	Verbose        bool
}

// Resolver runs the resolution pipeline. It is safe for concurrent use.
type Resolver struct {
	catalog        *catalog.Catalog
	prober         *assets.Prober
	cache          *Cache
	maxTextureSize int
	verbose        bool
}

// NewResolver wires a resolver. A nil cache gets a fresh one.
func NewResolver(cat *catalog.Catalog, fetcher assets.Fetcher, cache *Cache, opts Options) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Resolver{
		catalog: cat,
		prober: &assets.Prober{
			Fetcher: fetcher,
			Timeout: timeout,
			Verbose: opts.Verbose,
		},
		cache:          cache,
		maxTextureSize: opts.MaxTextureSize,
		verbose:        opts.Verbose,
	}
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// resolution is the wear-independent part of a result, shared through the
// cache.
type resolution struct {
	identity       identity.NormalizedIdentity
	model          catalog.ModelRef
	skin           *catalog.SkinRecord
	pattern        catalog.PatternMatch
	definitionPath string
	definition     *assets.MaterialDefinition
	candidates     assets.CandidateSet
	textures       map[assets.Channel]*assets.TextureHandle
}

// Resolve produces the render material for an item. Missing skins, files and
// channels degrade the material instead of failing; the only errors are an
// unresolvable mesh (catalog.ErrUnresolvableModel) and ctx ending.
func (r *Resolver) Resolve(ctx context.Context, desc identity.ItemDescriptor) (*ResolvedRenderMaterial, error) {
	id := desc.Identity()
	res, err := r.cache.get(ctx, id.CacheKey(desc.PaintIndex), func(ctx context.Context) (*resolution, error) {
		return r.resolve(ctx, id, desc.PaintIndex)
	})
	if err != nil {
		return nil, err
	}
	return res.material(desc), nil
}

// Plan is the search an item would run, computed without any I/O.
type Plan struct {
	Identity    identity.NormalizedIdentity  `json:"identity"`
	Model       catalog.ModelRef             `json:"model"`
	Skin        *catalog.SkinRecord          `json:"skin,omitempty"`
	Pattern     catalog.PatternMatch         `json:"pattern"`
	Definitions []assets.DefinitionCandidate `json:"definitions"`
	// Textures holds pattern-derived candidates only; paths named by the
	// definition file are prepended once it has been fetched.
	Textures assets.CandidateSet `json:"textures"`
}

// Plan returns the candidate lists for an item.
func (r *Resolver) Plan(desc identity.ItemDescriptor) (*Plan, error) {
	id := desc.Identity()
	model, err := r.selectModel(id, desc.PaintIndex)
	if err != nil {
		return nil, err
	}
	skin := r.lookupSkin(id, desc.PaintIndex)
	plan := &Plan{
		Identity: id,
		Model:    model,
		Skin:     skin,
		Pattern:  r.catalog.ResolvePattern(id.SkinKey, id.Variant, skin),
	}
	plan.Textures = assets.TextureCandidates(nil, plan.Pattern.Pattern, model.IsLegacy)
	if plan.Pattern.Found() {
		hint := ""
		if skin != nil {
			hint = skin.VMTPathHint
		}
		plan.Definitions = assets.DefinitionCandidates(hint, plan.Pattern.Pattern, model.IsLegacy)
	}
	return plan, nil
}

func (r *Resolver) resolve(ctx context.Context, id identity.NormalizedIdentity, paintIndex *int) (*resolution, error) {
	model, err := r.selectModel(id, paintIndex)
	if err != nil {
		return nil, err
	}

	skin := r.lookupSkin(id, paintIndex)
	res := &resolution{
		identity: id,
		model:    model,
		skin:     skin,
		pattern:  r.catalog.ResolvePattern(id.SkinKey, id.Variant, skin),
		textures: make(map[assets.Channel]*assets.TextureHandle, len(assets.Channels)),
	}
	for _, ch := range assets.Channels {
		res.textures[ch] = nil
	}

	if !res.pattern.Found() {
		log.Printf("Resolve %s: no pattern, using neutral material", id.LookupKey())
		return res, nil
	}
	if r.verbose {
		log.Printf("Resolve %s: pattern %s (%s), model %s legacy=%v",
			id.LookupKey(), res.pattern.Pattern, res.pattern.Source, model.Path, model.IsLegacy)
	}

	if err := r.resolveDefinition(ctx, res); err != nil {
		return nil, err
	}
	res.candidates = assets.TextureCandidates(res.definition, res.pattern.Pattern, model.IsLegacy)
	if err := r.resolveTextures(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// selectModel applies the model selector, retrying with the opposite legacy
// flag before giving up.
func (r *Resolver) selectModel(id identity.NormalizedIdentity, paintIndex *int) (catalog.ModelRef, error) {
	model := r.catalog.SelectModel(id.WeaponKey, paintIndex)
	if model.Resolved() {
		return model, nil
	}
	alt := r.catalog.SelectModelWithFlag(id.WeaponKey, !model.IsLegacy)
	if !alt.Resolved() {
		return model, fmt.Errorf("%w: weapon %q", catalog.ErrUnresolvableModel, id.WeaponKey)
	}
	log.Printf("Resolve %s: no mesh for legacy=%v, using legacy=%v mesh %s",
		id.LookupKey(), model.IsLegacy, alt.IsLegacy, alt.Path)
	return alt, nil
}

func (r *Resolver) lookupSkin(id identity.NormalizedIdentity, paintIndex *int) *catalog.SkinRecord {
	rec, ok := r.catalog.LookupSkin(id.WeaponKey, paintIndex)
	if !ok {
		return nil
	}
	return &rec
}

func (r *Resolver) resolveDefinition(ctx context.Context, res *resolution) error {
	hint := ""
	if res.skin != nil {
		hint = res.skin.VMTPathHint
	}
	candidates := assets.DefinitionCandidates(hint, res.pattern.Pattern, res.model.IsLegacy)
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.Path
	}

	def, path, err := assets.FirstAvailable(ctx, r.prober, paths, func(a *assets.Asset) (*assets.MaterialDefinition, error) {
		return assets.ParseDefinitionAsset(a, assets.FormatForPath(a.Path))
	})
	switch {
	case err == nil:
		res.definition, res.definitionPath = def, path
	case errors.Is(err, assets.ErrNotFound):
		if r.verbose {
			log.Printf("Resolve %s: no material definition, using pattern paths only", res.identity.LookupKey())
		}
	default:
		return err
	}
	return nil
}

// resolveTextures searches every channel concurrently. A channel that runs
// out of candidates stays nil without affecting the others.
func (r *Resolver) resolveTextures(ctx context.Context, res *resolution) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range assets.Channels {
		ch := ch
		g.Go(func() error {
			h, path, err := assets.FirstAvailable(gctx, r.prober, res.candidates[ch], r.decodeTexture)
			if err != nil {
				if errors.Is(err, assets.ErrNotFound) {
					if r.verbose {
						log.Printf("  %s: %s unresolved", res.identity.LookupKey(), ch)
					}
					return nil
				}
				return err
			}
			if r.verbose {
				log.Printf("  %s: %s <- %s", res.identity.LookupKey(), ch, path)
			}
			mu.Lock()
			res.textures[ch] = h
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (r *Resolver) decodeTexture(a *assets.Asset) (*assets.TextureHandle, error) {
	return assets.DecodeTexture(a, r.maxTextureSize)
}

// material applies the per-request parts (wear, paint seed) to a shared
// resolution.
func (res *resolution) material(desc identity.ItemDescriptor) *ResolvedRenderMaterial {
	textures := make(map[assets.Channel]*assets.TextureHandle, len(res.textures))
	for ch, h := range res.textures {
		textures[ch] = h
	}

	m := &ResolvedRenderMaterial{
		Identity:       res.identity,
		Model:          res.model,
		Skin:           res.skin,
		Pattern:        res.pattern,
		DefinitionPath: res.definitionPath,
		Definition:     res.definition,
		Textures:       textures,
		PaintSeed:      desc.PaintSeed,
		Wear:           desc.Wear,
	}

	var params shading.Params
	if !res.pattern.Found() || textures[assets.ChannelColor] == nil {
		params = shading.Neutral()
		m.Neutral = true
		m.BaseColor = shading.NeutralColor
	} else {
		params = shading.Compute(res.definition, desc.Wear, textures[assets.ChannelMask] != nil)
		m.BaseColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	m.Roughness = params.Roughness
	m.Metalness = params.Metalness
	m.Transparent = params.Transparent
	return m
}
