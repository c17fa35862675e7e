package profile

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry is the process-wide, read-mostly profile catalog (§4.1).
// It is safe for concurrent use; initialization is lazy and one-shot.
type Registry struct {
	initGroup singleflight.Group
	mu        sync.RWMutex
	byName    map[string]*Profile
	byFamily  map[Family][]*Profile // sorted ascending by majorVersion
}

// Default is the package-level registry populated with the built-in
// profile catalog, mirroring req/v3's package-level Impersonate*
// presets but exposed through the lookup operations §4.1 names instead
// of one method per browser.
var Default = NewRegistry()

// NewRegistry constructs an empty registry; call ensureInit (invoked
// automatically by every lookup) to populate it from the built-in
// tables.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) ensureInit() {
	r.mu.RLock()
	ready := r.byName != nil
	r.mu.RUnlock()
	if ready {
		return
	}
	// singleflight collapses concurrent first-callers into one
	// initializer, the one-shot-lazy-init idiom §4.1 asks for.
	_, _, _ = r.initGroup.Do("init", func() (interface{}, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.byName != nil {
			return nil, nil
		}
		r.load(builtinProfiles())
		return nil, nil
	})
}

func (r *Registry) load(profiles []*Profile) {
	r.byName = make(map[string]*Profile, len(profiles))
	r.byFamily = make(map[Family][]*Profile)
	for _, p := range profiles {
		r.byName[p.Name] = p
		r.byFamily[p.Family] = append(r.byFamily[p.Family], p)
	}
	for fam := range r.byFamily {
		list := r.byFamily[fam]
		sort.SliceStable(list, func(i, j int) bool {
			return majorVersion(list[i].Version) < majorVersion(list[j].Version)
		})
	}
}

func builtinProfiles() []*Profile {
	var all []*Profile
	all = append(all, chromeProfiles()...)
	all = append(all, firefoxProfiles()...)
	all = append(all, safariProfiles()...)
	all = append(all, edgeProfiles()...)
	all = append(all, operaProfiles()...)
	all = append(all, mobileProfiles()...)
	return all
}

// ErrNotFound is returned by lookups that find no matching profile.
type ErrNotFound struct {
	Query string
}

func (e *ErrNotFound) Error() string { return fmt.Sprintf("profile: not found: %s", e.Query) }

// ByName is an exact lookup by canonical registered name.
func (r *Registry) ByName(name string) (*Profile, error) {
	r.ensureInit()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	return nil, &ErrNotFound{Query: name}
}

// ByFamilyVersion returns the exact match for (family, version), or
// the greatest registered version ≤ version; if none qualifies, the
// latest registered version for that family (§4.1).
func (r *Registry) ByFamilyVersion(family Family, version string) (*Profile, error) {
	r.ensureInit()
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byFamily[family]
	if len(list) == 0 {
		return nil, &ErrNotFound{Query: string(family)}
	}
	target := majorVersion(version)
	var best *Profile
	for _, p := range list {
		v := majorVersion(p.Version)
		if v == target {
			return p, nil
		}
		if v <= target {
			best = p // list is sorted ascending, so this keeps advancing to the nearest ≤ target
		}
	}
	if best != nil {
		return best, nil
	}
	return list[len(list)-1], nil
}

// FromUserAgent parses family and version out of ua per §4.1's
// ordered detection rules, then resolves via ByFamilyVersion.
func (r *Registry) FromUserAgent(ua string) (*Profile, error) {
	family, version := DetectFromUserAgent(ua)
	if family == "" {
		return nil, &ErrNotFound{Query: ua}
	}
	return r.ByFamilyVersion(family, version)
}

// Random returns a uniformly-chosen profile from the entire catalog.
func (r *Registry) Random(rng *rand.Rand) (*Profile, error) {
	r.ensureInit()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.byName) == 0 {
		return nil, &ErrNotFound{Query: "*"}
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic index space for a given rng seed
	return r.byName[names[rng.Intn(len(names))]], nil
}

// RandomByFamily returns a uniformly-chosen profile within family.
func (r *Registry) RandomByFamily(rng *rand.Rand, family Family) (*Profile, error) {
	r.ensureInit()
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byFamily[family]
	if len(list) == 0 {
		return nil, &ErrNotFound{Query: string(family)}
	}
	return list[rng.Intn(len(list))], nil
}

// WithFeature filters family's registered versions by a named
// VersionEntry feature flag (SPEC_FULL Supplemented Features).
func (r *Registry) WithFeature(family Family, feature string) []*Profile {
	r.ensureInit()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Profile
	for _, p := range r.byFamily[family] {
		if hasFeature(p.VersionEntry, feature) {
			out = append(out, p)
		}
	}
	return out
}

func hasFeature(v VersionEntry, feature string) bool {
	switch feature {
	case "tls13":
		return v.TLS13
	case "ech":
		return v.ECH
	case "http2":
		return v.HTTP2
	case "http3":
		return v.HTTP3
	case "psk":
		return v.PSK
	case "early_data":
		return v.EarlyData
	case "post_quantum":
		return v.PostQuantum
	case "brotli":
		return v.Brotli
	default:
		return false
	}
}

// MigrationMap returns old-version-name → new-version-name hints for
// family, derived from each entry's VersionEntry.FallbackVersion
// (SPEC_FULL Supplemented Features).
func (r *Registry) MigrationMap(family Family) map[string]string {
	r.ensureInit()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]string{}
	for _, p := range r.byFamily[family] {
		if p.VersionEntry.FallbackVersion != "" {
			out[p.Version] = p.VersionEntry.FallbackVersion
		}
	}
	return out
}
