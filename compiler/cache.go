package compiler

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"wafacl/customrule"

	"golang.org/x/sync/singleflight"
)

type cacheImpl struct {
	compiler      Compiler
	resultsLogger ResultsLogger
	group         singleflight.Group
	mux      sync.Mutex
	results  map[string]*Result
}

// NewCache wraps a compiler with a cache keyed by the content hash of the normalized specification.
// Concurrent requests for the same specification share a single compilation. Failed compilations
// are not cached. Callers served from the cache or from another caller's compilation are reported
// to rl under their own source, as c only reports the compilations it runs. rl may be nil.
func NewCache(c Compiler, rl ResultsLogger) Compiler {
	return &cacheImpl{
		compiler:      c,
		resultsLogger: rl,
		results:       make(map[string]*Result),
	}
}

func (c *cacheImpl) Compile(source string, spec *customrule.Spec) (result *Result, err error) {
	if spec == nil {
		return c.compiler.Compile(source, spec)
	}

	key, err := SpecHash(spec)
	if err != nil {
		return
	}

	if r, ok := c.lookup(key); ok {
		report(c.resultsLogger, source, r, nil)
		return r, nil
	}

	compiled := false
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have finished between the lookup and Do.
		if r, ok := c.lookup(key); ok {
			return r, nil
		}

		compiled = true
		r, err := c.compiler.Compile(source, spec)
		if err != nil {
			return nil, err
		}

		c.mux.Lock()
		c.results[key] = r
		c.mux.Unlock()
		return r, nil
	})
	if !compiled {
		report(c.resultsLogger, source, resultOf(v), err)
	}
	if err != nil {
		return nil, err
	}

	return v.(*Result), nil
}

func resultOf(v interface{}) *Result {
	r, _ := v.(*Result)
	return r
}

func (c *cacheImpl) lookup(key string) (r *Result, ok bool) {
	c.mux.Lock()
	defer c.mux.Unlock()

	r, ok = c.results[key]
	return
}

// SpecHash is the content hash of a specification, with preset references normalized so that
// equivalent references hash the same.
func SpecHash(spec *customrule.Spec) (string, error) {
	canonical := *spec
	canonical.Presets = customrule.NormalizePresetRefs(spec.Presets)

	bb, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to hash specification: %w", err)
	}

	hash := sha1.New()
	hash.Write(bb)
	return hex.EncodeToString(hash.Sum(nil)), nil
}
