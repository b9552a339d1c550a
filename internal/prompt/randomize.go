package prompt

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/imageloader/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var ErrNoPrompts = errors.New("no prompts configured")

// Randomizer picks a prompt when a request does not carry one.
type Randomizer struct {
	prompts []string
	mu      sync.Mutex
	rnd     *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	return New(prompts, time.Now().UTC().UnixNano()), nil
}

// New drops blank entries from prompts.
func New(prompts []string, seed int64) *Randomizer {
	prompts = lo.FilterMap(prompts, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	return &Randomizer{prompts: prompts, rnd: rand.New(rand.NewSource(seed))}
}

func (r *Randomizer) Randomize(ctx context.Context) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	log.Info("getting random prompt", "choices", len(r.prompts))

	if len(r.prompts) == 0 {
		return "", ErrNoPrompts
	}

	r.mu.Lock()
	idx := r.rnd.Intn(len(r.prompts))
	r.mu.Unlock()
	return r.prompts[idx], nil
}
