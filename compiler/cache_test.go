package compiler

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wafacl/customrule"

	"github.com/stretchr/testify/assert"
)

func TestCacheReturnsStoredResult(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	inner := &countingCompiler{}
	c := NewCache(inner, nil)
	spec := &customrule.Spec{DefaultAction: "allow", Presets: []string{"baseline"}}

	// Act
	first, err1 := c.Compile("a", spec)
	second, err2 := c.Compile("b", &customrule.Spec{DefaultAction: "allow", Presets: []string{" Baseline", "baseline"}})

	// Assert
	assert.Nil(err1)
	assert.Nil(err2)
	assert.True(first == second)
	assert.Equal(1, inner.Calls())
}

func TestCacheDistinguishesSpecs(t *testing.T) {
	assert := assert.New(t)

	inner := &countingCompiler{}
	c := NewCache(inner, nil)

	a, _ := c.Compile("a", &customrule.Spec{DefaultAction: "allow"})
	b, _ := c.Compile("b", &customrule.Spec{DefaultAction: "block"})

	assert.Equal("allow", string(a.Output))
	assert.Equal("block", string(b.Output))
	assert.Equal(2, inner.Calls())
}

func TestCacheConcurrentCallsShareCompilation(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	inner := &countingCompiler{delay: 50 * time.Millisecond}
	c := NewCache(inner, nil)
	spec := &customrule.Spec{DefaultAction: "block"}

	// Act
	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Compile("concurrent", spec)
		}(i)
	}
	wg.Wait()

	// Assert
	assert.Equal(1, inner.Calls())
	for _, r := range results {
		assert.True(r == results[0])
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	inner := &countingCompiler{err: errors.New("boom")}
	c := NewCache(inner, nil)
	spec := &customrule.Spec{DefaultAction: "allow"}

	// Act
	_, err1 := c.Compile("a", spec)
	_, err2 := c.Compile("a", spec)

	// Assert
	assert.NotNil(err1)
	assert.NotNil(err2)
	assert.Equal(2, inner.Calls())
}

func TestCacheReportsEveryCall(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	rl := &mockResultsLogger{}
	inner := &countingCompiler{rl: rl}
	c := NewCache(inner, rl)
	spec := &customrule.Spec{DefaultAction: "allow"}

	// Act
	_, err1 := c.Compile("first.yaml", spec)
	_, err2 := c.Compile("second.yaml", &customrule.Spec{DefaultAction: "allow"})
	_, err3 := c.Compile("third.yaml", spec)

	// Assert
	assert.Nil(err1)
	assert.Nil(err2)
	assert.Nil(err3)
	assert.Equal(1, inner.Calls())
	assert.Equal([]string{"first.yaml", "second.yaml", "third.yaml"}, rl.Sources())
}

func TestCacheReportsSharedCompilations(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	rl := &mockResultsLogger{}
	inner := &countingCompiler{delay: 50 * time.Millisecond, rl: rl}
	c := NewCache(inner, rl)
	spec := &customrule.Spec{DefaultAction: "block"}

	// Act
	var wg sync.WaitGroup
	want := make([]string, 8)
	for i := range want {
		want[i] = fmt.Sprintf("spec-%d.yaml", i)
		wg.Add(1)
		go func(source string) {
			defer wg.Done()
			c.Compile(source, spec)
		}(want[i])
	}
	wg.Wait()

	// Assert
	assert.Equal(1, inner.Calls())
	assert.ElementsMatch(want, rl.Sources())
}

func TestCacheReportsSharedStageErrors(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	rl := &mockResultsLogger{}
	serr := &StageError{Stage: Validated, Err: errors.New("conflict")}
	inner := &countingCompiler{delay: 50 * time.Millisecond, err: serr, rl: rl}
	c := NewCache(inner, rl)
	spec := &customrule.Spec{DefaultAction: "allow"}

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Compile("shared.yaml", spec)
		}()
	}
	wg.Wait()

	// Assert
	rl.mux.Lock()
	defer rl.mux.Unlock()
	assert.Len(rl.failed, 4)
	assert.Empty(rl.compiled)
}

func TestSpecHash(t *testing.T) {
	assert := assert.New(t)

	h1, err := SpecHash(&customrule.Spec{Presets: []string{"API-Hardened"}})
	assert.Nil(err)
	h2, _ := SpecHash(&customrule.Spec{Presets: []string{"api-hardened", "api-hardened"}})
	h3, _ := SpecHash(&customrule.Spec{Presets: []string{"baseline"}})

	assert.Equal(h1, h2)
	assert.NotEqual(h1, h3)
	assert.Len(h1, 40)
}
